package registry

import (
	"fmt"
	"runtime"
	"testing"
)

// withLookPath swaps the PATH probe for the duration of a test.
func withLookPath(t *testing.T, fn func(string) (string, error)) {
	t.Helper()
	orig := lookPath
	lookPath = fn
	t.Cleanup(func() { lookPath = orig })
}

func TestDetectNothingInstalled(t *testing.T) {
	withLookPath(t, func(name string) (string, error) {
		return "", fmt.Errorf("not found")
	})

	reg := Detect()

	if len(reg.CLIs) != len(knownCLIs) {
		t.Fatalf("every known CLI must appear in the snapshot: got %d, want %d",
			len(reg.CLIs), len(knownCLIs))
	}
	for id, c := range reg.CLIs {
		if c.Detected {
			t.Errorf("CLI %s reported detected with empty PATH", id)
		}
		if c.InstallURL == "" {
			t.Errorf("CLI %s has no install URL", id)
		}
	}
	for id, term := range reg.Terminals {
		if term.Detected {
			t.Errorf("terminal %s reported detected with empty PATH", id)
		}
	}
}

func TestDetectSomeInstalled(t *testing.T) {
	withLookPath(t, func(name string) (string, error) {
		switch name {
		case "claude":
			return "/usr/local/bin/claude", nil
		case "ollama":
			return "/usr/bin/ollama", nil
		}
		return "", fmt.Errorf("not found")
	})

	reg := Detect()

	claude := reg.CLI("claude")
	if claude == nil || !claude.Detected {
		t.Fatal("claude should be detected")
	}
	if claude.Path != "/usr/local/bin/claude" {
		t.Errorf("claude path = %q", claude.Path)
	}
	if claude.Executable != "claude" {
		t.Errorf("claude executable = %q", claude.Executable)
	}

	if gemini := reg.CLI("gemini"); gemini == nil || gemini.Detected {
		t.Error("gemini should be present but undetected")
	}

	detected := reg.DetectedCLIs()
	if len(detected) != 2 {
		t.Fatalf("DetectedCLIs = %d entries, want 2", len(detected))
	}
	// Sorted by id
	if detected[0].ID != "claude" || detected[1].ID != "ollama" {
		t.Errorf("DetectedCLIs order = %s, %s", detected[0].ID, detected[1].ID)
	}
}

func TestDetectTerminals(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("no terminal catalog for this OS")
	}

	withLookPath(t, func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	})

	reg := Detect()
	if len(reg.Terminals) == 0 {
		t.Fatal("terminal catalog is empty")
	}
	for id, term := range reg.Terminals {
		if !term.Detected {
			t.Errorf("terminal %s should be detected", id)
		}
		if len(term.LaunchCommand) == 0 {
			t.Errorf("terminal %s has no launch template", id)
		}
	}
}

func TestUnknownLookups(t *testing.T) {
	withLookPath(t, func(name string) (string, error) {
		return "", fmt.Errorf("not found")
	})

	reg := Detect()
	if reg.CLI("nonesuch") != nil {
		t.Error("unknown CLI id should return nil")
	}
	if reg.Terminal("nonesuch") != nil {
		t.Error("unknown terminal id should return nil")
	}
}
