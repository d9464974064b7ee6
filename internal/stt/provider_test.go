package stt

import (
	"strings"
	"testing"
)

func TestNewProviderSelectsOpenAI(t *testing.T) {
	p, err := NewProvider(Config{
		Provider: "openai",
		OpenAI:   OpenAIConfig{APIKey: "sk-test"},
	})
	if err != nil {
		t.Fatalf("NewProvider(openai): %v", err)
	}
	defer p.Close()

	if p.Name() != "openai" {
		t.Errorf("provider name = %q, want openai", p.Name())
	}
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("provider type = %T, want *OpenAIProvider", p)
	}
}

func TestNewProviderOpenAIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	p, err := NewProvider(Config{Provider: "openai"})
	if err != nil {
		t.Fatalf("NewProvider(openai) with env key: %v", err)
	}
	defer p.Close()

	if p.Name() != "openai" {
		t.Errorf("provider name = %q, want openai", p.Name())
	}
}

func TestNewProviderOpenAIWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Fatal("openai without an API key must fail")
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "siri"})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("err = %v, want unknown provider", err)
	}
}
