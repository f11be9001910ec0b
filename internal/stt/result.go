package stt

import "errors"

// PlaceholderConfidence is reported when the engine exposes no score.
// It is a constant stub and says nothing about transcription quality.
const PlaceholderConfidence = 0.8

// ErrEmptyTranscript is returned when the engine recognises no speech at all.
var ErrEmptyTranscript = errors.New("no speech detected in audio")

// Result represents the result of a speech-to-text transcription
type Result struct {
	Transcript    string  // Cleaned question text
	RawTranscript string  // Text exactly as the engine returned it
	Confidence    float64 // 0.0-1.0, see Measured
	Measured      bool    // false when Confidence is PlaceholderConfidence
	Provider      string  // The provider used (e.g., "whisper", "google")
}
