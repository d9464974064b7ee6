// Package config owns the persisted session configuration: which CLI and
// terminal are selected, voice settings, and the user's custom triggers.
// It is a plain JSON file; loading a just-saved file reproduces the same
// in-memory state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"

	logging "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/paths"
	"github.com/voxctl/voxctl/internal/trigger"
)

// VoiceSettings holds the speech recognition knobs.
type VoiceSettings struct {
	Provider         string  `json:"provider"` // "whispercpp" or "openai"
	Model            string  `json:"model"`
	Language         string  `json:"language"`
	SilenceThreshold float64 `json:"silenceThreshold"` // seconds
}

// Config is the persisted session configuration.
type Config struct {
	SelectedCLI      string          `json:"selectedCli"`
	SelectedTerminal string          `json:"selectedTerminal"`
	Voice            VoiceSettings   `json:"voiceSettings"`
	CustomTriggers   []trigger.Entry `json:"customTriggers,omitempty"`

	// path is where this config was loaded from and will be saved to.
	path string
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Voice: VoiceSettings{
			Provider:         "whispercpp",
			Model:            "base.en",
			Language:         "en",
			SilenceThreshold: 2.0,
		},
	}
}

// Path returns the file this config is bound to.
func (c *Config) Path() string {
	return c.path
}

// Load reads the configuration, resolving the path the usual way
// (./voxctl.json first, then ~/.voxctl/voxctl.json). A missing file
// yields defaults bound to the default path. A corrupt file is renamed
// aside for inspection and replaced by defaults with a warning; user
// data is never silently destroyed.
func Load() (*Config, error) {
	path, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if path == "" {
		defPath, err := paths.DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("resolve default config path: %w", err)
		}
		cfg := Default()
		cfg.path = defPath
		logging.L_info("config: no file found, using defaults", "path", defPath)
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%s", path, time.Now().Format("20060102-150405"))
		if renameErr := os.Rename(path, quarantine); renameErr != nil {
			logging.L_warn("config: corrupt file, failed to move aside", "path", path, "error", renameErr)
		} else {
			logging.L_warn("config: corrupt file moved aside, using defaults",
				"path", path, "saved", quarantine, "parseError", err)
		}
		cfg := Default()
		cfg.path = path
		return cfg, nil
	}

	cfg := Default()
	if err := mergo.Merge(cfg, &loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge config over defaults: %w", err)
	}
	// mergo skips zero values, but an explicit empty trigger list is data
	cfg.CustomTriggers = loaded.CustomTriggers
	cfg.path = path

	logging.L_debug("config: loaded", "path", path, "customTriggers", len(cfg.CustomTriggers))
	return cfg, nil
}

// Save writes the configuration back to its bound path, with backup
// rotation.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no path bound")
	}
	return BackupAndWriteJSON(c.path, c, DefaultBackupCount)
}

// SaveTo binds the config to a new path and writes it there.
func (c *Config) SaveTo(path string) error {
	c.path = path
	return c.Save()
}
