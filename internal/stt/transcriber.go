package stt

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Transcriber runs the normalizer and a Provider, then cleans the wake phrase
// out of the transcript.
type Transcriber struct {
	provider    Provider
	normalizer  Normalizer
	wakePhrases []string
	logger      *slog.Logger
}

// NewTranscriber wires a provider with an optional normalizer. A nil
// normalizer sends the uploaded file to the engine as is.
func NewTranscriber(provider Provider, normalizer Normalizer, wakePhrases []string, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{
		provider:    provider,
		normalizer:  normalizer,
		wakePhrases: wakePhrases,
		logger:      logger,
	}
}

// Transcribe normalizes audioPath and transcribes it. The intermediate
// normalized file is removed before returning on every path; audioPath itself
// belongs to the caller.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	input := audioPath
	if t.normalizer != nil {
		input = t.normalizer.Normalize(audioPath)
		if input != audioPath {
			defer func() {
				if err := os.Remove(input); err != nil && !errors.Is(err, os.ErrNotExist) {
					t.logger.Warn("failed to remove normalized audio", "path", input, "error", err)
				}
			}()
		}
	}

	res, err := t.provider.Transcribe(ctx, input)
	if err != nil {
		return nil, err
	}

	res.Transcript = CleanQuestion(res.Transcript, t.wakePhrases)
	t.logger.Info("question transcribed",
		"provider", res.Provider,
		"question", res.Transcript,
		"confidence", res.Confidence,
		"measured", res.Measured,
	)
	return res, nil
}
