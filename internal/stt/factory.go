package stt

import (
	"context"
	"fmt"
	"log/slog"

	"podask/internal/config"
)

// NewProvider creates the STT provider selected in cfg.
func NewProvider(ctx context.Context, cfg config.STTConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "whisper":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("whisper: OPENAI_API_KEY is not set")
		}
		logger.Info("creating whisper stt provider", "model", cfg.Model)
		return NewWhisperProvider(cfg.APIKey, cfg.BaseURL, WhisperOptions{
			Model:    cfg.Model,
			Language: cfg.Language,
			Prompt:   cfg.Prompt,
		}, logger), nil
	case "google":
		if cfg.GoogleKey == "" && cfg.GoogleProjectID == "" {
			return nil, fmt.Errorf("google stt: GOOGLE_STT_KEY_FILE is not set. It can be an API key, a path to a JSON key file or the JSON itself")
		}
		return NewGoogleProvider(ctx, GoogleConfig{
			ProjectID: cfg.GoogleProjectID,
			Key:       cfg.GoogleKey,
			Language:  cfg.Language,
			BaseURL:   cfg.BaseURL,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s. Supported: whisper, google", cfg.Provider)
	}
}
