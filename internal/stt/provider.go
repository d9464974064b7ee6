// Package stt provides speech-to-text transcription: a local whisper.cpp
// backend, the OpenAI Whisper API, and the microphone capture loop that
// turns either one into a stream of recognition fragments.
package stt

import "github.com/voxctl/voxctl/internal/segment"

// Provider is the interface for STT implementations.
type Provider interface {
	// Transcribe converts an audio file to text.
	// filePath should be an audio file (WAV, OGG, etc.)
	Transcribe(filePath string) (string, error)

	// Name returns the provider name (e.g., "whispercpp", "openai")
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// SampleTranscriber is implemented by providers that can transcribe raw
// 16kHz mono float32 samples directly, without an intermediate file.
type SampleTranscriber interface {
	TranscribeSamples(samples []float32) (string, error)
}

// Source produces recognition fragments for the command pipeline.
// Implementations close the fragment channel when the source ends.
type Source interface {
	Fragments() <-chan segment.Fragment
	Close() error
}
