package stt

import (
	"fmt"
	"io"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	logging "github.com/voxctl/voxctl/internal/logging"
)

// WhisperCppProvider implements STT using whisper.cpp.
type WhisperCppProvider struct {
	model  whisper.Model
	config WhisperCppConfig
}

// WhisperCppConfig holds configuration for Whisper.cpp.
type WhisperCppConfig struct {
	ModelsDir string `json:"modelsDir"` // Directory containing whisper models
	Model     string `json:"model"`     // Model name (e.g., "ggml-base.en.bin")
	Language  string `json:"language"`  // Language code (e.g., "en", "auto" for detection)
	Threads   uint   `json:"threads"`   // Number of threads (0 = auto)
}

// NewWhisperCppProvider creates a new Whisper.cpp STT provider.
func NewWhisperCppProvider(cfg WhisperCppConfig) (*WhisperCppProvider, error) {
	if cfg.ModelsDir == "" {
		return nil, fmt.Errorf("whisper.cpp modelsDir not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("whisper.cpp model not configured")
	}

	modelPath := cfg.ModelsDir + "/" + cfg.Model
	logging.L_info("stt: loading whisper.cpp model", "path", modelPath)

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}

	logging.L_info("stt: whisper.cpp model loaded", "multilingual", model.IsMultilingual())

	return &WhisperCppProvider{
		model:  model,
		config: cfg,
	}, nil
}

// Transcribe converts an audio file to text using Whisper.cpp.
func (w *WhisperCppProvider) Transcribe(filePath string) (string, error) {
	logging.L_debug("stt: whisper.cpp transcribing", "file", filePath)

	// whisper.cpp wants 16kHz mono float32
	samples, err := ConvertToFloat32(filePath)
	if err != nil {
		return "", fmt.Errorf("convert audio: %w", err)
	}

	return w.TranscribeSamples(samples)
}

// TranscribeSamples runs recognition over raw 16kHz mono float32 samples.
func (w *WhisperCppProvider) TranscribeSamples(samples []float32) (string, error) {
	ctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	if w.config.Language != "" && w.config.Language != "auto" {
		if err := ctx.SetLanguage(w.config.Language); err != nil {
			logging.L_warn("stt: failed to set language", "language", w.config.Language, "error", err)
		}
	} else if w.config.Language == "auto" {
		if err := ctx.SetLanguage("auto"); err != nil {
			logging.L_debug("stt: auto language detection not supported for this model")
		}
	}

	if w.config.Threads > 0 {
		ctx.SetThreads(w.config.Threads)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var text strings.Builder
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("get segment: %w", err)
		}
		text.WriteString(seg.Text)
	}

	result := strings.TrimSpace(text.String())
	logging.L_debug("stt: whisper.cpp transcription complete", "length", len(result))

	return result, nil
}

// Name returns the provider name.
func (w *WhisperCppProvider) Name() string {
	return "whispercpp"
}

// Close releases the whisper model.
func (w *WhisperCppProvider) Close() error {
	logging.L_debug("stt: closing whisper.cpp model")
	return w.model.Close()
}
