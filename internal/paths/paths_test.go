package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseDir(t *testing.T) {
	base, err := BaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(base, ".voxctl") {
		t.Errorf("BaseDir = %q", base)
	}
}

func TestDataPath(t *testing.T) {
	p, err := DataPath("history.db")
	if err != nil {
		t.Fatal(err)
	}
	base, _ := BaseDir()
	if p != filepath.Join(base, "history.db") {
		t.Errorf("DataPath = %q", p)
	}
}

func TestConfigPathPrefersLocal(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	local := filepath.Join(dir, "voxctl.json")
	if err := os.WriteFile(local, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	resolved, _ := filepath.EvalSymlinks(got)
	wantResolved, _ := filepath.EvalSymlinks(local)
	if resolved != wantResolved {
		t.Errorf("ConfigPath = %q, want local %q", got, local)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/models", filepath.Join(home, "models")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := ExpandTilde(tt.in)
		if err != nil {
			t.Fatalf("ExpandTilde(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	// Idempotent
	if err := EnsureDir(path); err != nil {
		t.Errorf("EnsureDir on existing dir: %v", err)
	}
}
