package stt

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	logging "github.com/voxctl/voxctl/internal/logging"
)

// requestTimeout bounds one transcription call against the API.
const requestTimeout = 2 * time.Minute

// OpenAIProvider implements STT using OpenAI's Whisper API.
type OpenAIProvider struct {
	config OpenAIConfig
	client *openai.Client
}

// OpenAIConfig holds OpenAI Whisper configuration.
type OpenAIConfig struct {
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`    // "whisper-1"
	Language string `json:"language"` // optional hint, e.g. "en"
}

// NewOpenAIProvider creates a new OpenAI Whisper STT provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	logging.L_info("stt: openai provider initialized", "model", cfg.Model)

	return &OpenAIProvider{
		config: cfg,
		client: openai.NewClient(cfg.APIKey),
	}, nil
}

// Transcribe converts an audio file to text using OpenAI's Whisper API.
// The API accepts WAV and OGG/Opus directly, no conversion needed.
func (o *OpenAIProvider) Transcribe(filePath string) (string, error) {
	logging.L_debug("stt: openai transcribing", "file", filePath)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.config.Model,
		FilePath: filePath,
		Language: o.config.Language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	logging.L_debug("stt: openai transcription complete", "length", len(resp.Text))
	return resp.Text, nil
}

// Name returns the provider name.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// Close releases any resources (none for the HTTP client).
func (o *OpenAIProvider) Close() error {
	return nil
}
