package stt

import "context"

// Provider defines the interface for speech-to-text engines
type Provider interface {
	// Transcribe transcribes an audio file and returns the result
	Transcribe(ctx context.Context, audioPath string) (*Result, error)

	// Name returns the name of the provider (e.g., "whisper", "google")
	Name() string

	// Model returns the engine model reported by the health check
	Model() string
}

// Normalizer prepares audio before transcription. It returns the path to
// transcribe, which is the input path when nothing was produced.
type Normalizer interface {
	Normalize(path string) string
}
