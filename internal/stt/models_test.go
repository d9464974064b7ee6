package stt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalModelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"base.en", "ggml-base.en.bin"},
		{"tiny", "ggml-tiny.bin"},
		{"large-v3", "ggml-large-v3.bin"},
		{"ggml-base.en.bin", "ggml-base.en.bin"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalModelName(tt.in); got != tt.want {
			t.Errorf("CanonicalModelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetModel(t *testing.T) {
	if m := GetModel("base.en"); m == nil || m.Name != "ggml-base.en.bin" {
		t.Errorf("GetModel(base.en) = %+v", m)
	}
	if m := GetModel("ggml-tiny.bin"); m == nil || m.Label != "Tiny Multilingual" {
		t.Errorf("GetModel(ggml-tiny.bin) = %+v", m)
	}
	if m := GetModel("nonesuch"); m != nil {
		t.Errorf("GetModel(nonesuch) = %+v, want nil", m)
	}

	// Every catalog entry is resolvable and has a download URL
	for _, m := range WhisperModels {
		if GetModel(m.Name) == nil {
			t.Errorf("catalog entry %s not resolvable", m.Name)
		}
		if m.URL == "" || m.SizeBytes == 0 {
			t.Errorf("catalog entry %s incomplete", m.Name)
		}
	}
}

func TestIsModelDownloaded(t *testing.T) {
	dir := t.TempDir()

	if IsModelDownloaded(dir, "base.en") {
		t.Error("missing model reported downloaded")
	}
	if IsModelDownloaded("", "base.en") || IsModelDownloaded(dir, "") {
		t.Error("empty args must report not downloaded")
	}

	// Empty file does not count
	path := filepath.Join(dir, "ggml-base.en.bin")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if IsModelDownloaded(dir, "base.en") {
		t.Error("empty model file reported downloaded")
	}

	if err := os.WriteFile(path, []byte("weights"), 0600); err != nil {
		t.Fatal(err)
	}
	if !IsModelDownloaded(dir, "base.en") {
		t.Error("short name must resolve against the canonical filename")
	}
	if !IsModelDownloaded(dir, "ggml-base.en.bin") {
		t.Error("canonical name must resolve")
	}
}
