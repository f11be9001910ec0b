// Package tts turns answer text into speech audio.
package tts

import (
	"context"
	"fmt"
	"log/slog"

	"podask/internal/config"
)

// Audio is synthesized speech.
type Audio struct {
	Data        []byte
	Format      string // file extension, e.g. "mp3"
	ContentType string
}

// Synthesizer converts text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
	Name() string
}

// NewSynthesizer creates the synthesizer selected in cfg. The "none"
// provider returns a nil Synthesizer and no error: answers are sent
// without audio.
func NewSynthesizer(cfg config.TTSConfig, logger *slog.Logger) (Synthesizer, error) {
	switch cfg.Provider {
	case "none":
		logger.Info("speech synthesis disabled")
		return nil, nil
	case "elevenlabs":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("elevenlabs: ELEVENLABS_API_KEY is not set")
		}
		logger.Info("creating elevenlabs synthesizer", "voice", cfg.Voice, "model", cfg.Model)
		return NewElevenLabsSynthesizer(cfg.APIKey, cfg.Voice, cfg.Model, cfg.BaseURL), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai tts: OPENAI_API_KEY is not set")
		}
		logger.Info("creating openai synthesizer", "voice", cfg.Voice, "model", cfg.Model)
		return NewOpenAISynthesizer(cfg.APIKey, cfg.Voice, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported TTS provider: %s. Supported: elevenlabs, openai, none", cfg.Provider)
	}
}
