// Package registry probes the host for known AI CLIs and terminal
// emulators. Absence of a tool is data, never an error: every known entry
// appears in the result with its Detected flag set accordingly.
package registry

import (
	"context"
	"os/exec"
	"sort"
	"strings"
	"time"

	. "github.com/voxctl/voxctl/internal/logging"
)

// versionProbeTimeout bounds how long a `--version` invocation may run.
const versionProbeTimeout = 5 * time.Second

// lookPath is swappable for tests.
var lookPath = exec.LookPath

// CLIDescriptor is one known AI CLI and its detection result.
type CLIDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Executable  string `json:"executable"` // resolved command name (first detected candidate)
	InstallURL  string `json:"installUrl"`
	Detected    bool   `json:"detected"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
}

// TerminalDescriptor is one known terminal emulator and its detection result.
type TerminalDescriptor struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	LaunchCommand []string `json:"launchCommand"`
	Detected      bool     `json:"detected"`
	Path          string   `json:"path,omitempty"`
}

// Registry is one atomic detection snapshot. It is rebuilt whole by
// Detect and never mutated in place afterwards.
type Registry struct {
	CLIs       map[string]*CLIDescriptor
	Terminals  map[string]*TerminalDescriptor
	DetectedAt time.Time
}

// Detect probes the executable search path for every known CLI and
// terminal. It reads PATH and nothing else; version probing (which runs
// the tools) is a separate, opt-in step.
func Detect() *Registry {
	reg := &Registry{
		CLIs:       make(map[string]*CLIDescriptor, len(knownCLIs)),
		Terminals:  make(map[string]*TerminalDescriptor),
		DetectedAt: time.Now(),
	}

	for _, spec := range knownCLIs {
		desc := &CLIDescriptor{
			ID:          spec.ID,
			DisplayName: spec.DisplayName,
			Description: spec.Description,
			Executable:  spec.Commands[0],
			InstallURL:  spec.InstallURL,
		}
		for _, cmd := range spec.Commands {
			if path, err := lookPath(cmd); err == nil {
				desc.Detected = true
				desc.Executable = cmd
				desc.Path = path
				break
			}
		}
		reg.CLIs[spec.ID] = desc
	}

	for _, spec := range knownTerminals() {
		desc := &TerminalDescriptor{
			ID:            spec.ID,
			DisplayName:   spec.DisplayName,
			LaunchCommand: append([]string(nil), spec.LaunchCommand...),
		}
		if path, err := lookPath(spec.Executable); err == nil {
			desc.Detected = true
			desc.Path = path
		}
		reg.Terminals[spec.ID] = desc
	}

	L_debug("registry: detection complete",
		"clis", len(reg.DetectedCLIs()),
		"terminals", len(reg.DetectedTerminals()))
	return reg
}

// ProbeVersions runs `<cli> --version` for each detected CLI and records
// the first output line. Failures leave Version as "unknown"; they never
// undo detection.
func (r *Registry) ProbeVersions(ctx context.Context) {
	for _, desc := range r.CLIs {
		if !desc.Detected {
			continue
		}
		desc.Version = probeVersion(ctx, desc.Executable)
	}
}

func probeVersion(ctx context.Context, command string) string {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	// #nosec G204 - command comes from the static CLI catalog
	out, err := exec.CommandContext(ctx, command, "--version").Output()
	if err != nil {
		L_trace("registry: version probe failed", "command", command, "error", err)
		return "unknown"
	}

	line := strings.TrimSpace(string(out))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if line == "" {
		return "unknown"
	}
	return line
}

// CLI returns the descriptor for an id, or nil when the id is unknown.
func (r *Registry) CLI(id string) *CLIDescriptor {
	return r.CLIs[id]
}

// Terminal returns the descriptor for an id, or nil when the id is unknown.
func (r *Registry) Terminal(id string) *TerminalDescriptor {
	return r.Terminals[id]
}

// DetectedCLIs returns the detected CLI descriptors sorted by id.
func (r *Registry) DetectedCLIs() []*CLIDescriptor {
	var out []*CLIDescriptor
	for _, d := range r.CLIs {
		if d.Detected {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DetectedTerminals returns the detected terminal descriptors sorted by id.
func (r *Registry) DetectedTerminals() []*TerminalDescriptor {
	var out []*TerminalDescriptor
	for _, d := range r.Terminals {
		if d.Detected {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllCLIs returns every known CLI descriptor sorted by id, detected or not.
func (r *Registry) AllCLIs() []*CLIDescriptor {
	out := make([]*CLIDescriptor, 0, len(r.CLIs))
	for _, d := range r.CLIs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllTerminals returns every known terminal descriptor sorted by id.
func (r *Registry) AllTerminals() []*TerminalDescriptor {
	out := make([]*TerminalDescriptor, 0, len(r.Terminals))
	for _, d := range r.Terminals {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
