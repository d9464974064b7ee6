package stt

import (
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/paths"
)

// Config holds STT configuration.
type Config struct {
	Provider   string           `json:"provider"`   // "whispercpp", "openai"
	WhisperCpp WhisperCppConfig `json:"whispercpp"` // Local whisper.cpp
	OpenAI     OpenAIConfig     `json:"openai"`     // OpenAI Whisper API
}

// NewProvider builds the STT provider for the given configuration.
// The default provider is local whisper.cpp; OpenAI is opt-in via
// config or the OPENAI_API_KEY environment variable.
func NewProvider(cfg Config) (Provider, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "whispercpp"
	}

	switch provider {
	case "whispercpp":
		return newWhisperCppFromConfig(cfg.WhisperCpp)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIProvider(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("stt: unknown provider: %s", provider)
	}
}

func newWhisperCppFromConfig(cfg WhisperCppConfig) (*WhisperCppProvider, error) {
	if cfg.ModelsDir == "" {
		dir, err := paths.DefaultModelsDir()
		if err != nil {
			return nil, fmt.Errorf("stt: resolve models dir: %w", err)
		}
		cfg.ModelsDir = dir
	}

	modelsDir, err := paths.ExpandTilde(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("stt: failed to expand models dir: %w", err)
	}

	cfg.Model = CanonicalModelName(cfg.Model)
	if cfg.Model == "" {
		return nil, fmt.Errorf("stt: no whisper model selected")
	}

	if !IsModelDownloaded(modelsDir, cfg.Model) {
		modelPath := filepath.Join(modelsDir, cfg.Model)
		return nil, fmt.Errorf("stt: model not found at %s - run 'voxctl download-model' first", modelPath)
	}

	cfg.ModelsDir = modelsDir
	provider, err := NewWhisperCppProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("stt: failed to initialize whispercpp: %w", err)
	}

	logging.L_info("stt: whispercpp provider initialized", "model", cfg.Model)
	return provider, nil
}
