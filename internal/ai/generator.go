// Package ai generates spoken-length answers with a text generation model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"podask/internal/config"
)

// ErrEmptyAnswer is returned when the model responds without any text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// Generator turns a prompt into answer text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
	Model() string
}

// NewGenerator creates the generator selected in cfg.
func NewGenerator(cfg config.LLMConfig, logger *slog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is not set", cfg.Provider)
	}

	switch cfg.Provider {
	case "gemini":
		logger.Info("creating gemini generator", "model", cfg.Model)
		return NewGeminiGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL, GenerationOptions{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	case "openai":
		logger.Info("creating openai generator", "model", cfg.Model)
		return NewOpenAIGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL, GenerationOptions{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s. Supported: gemini, openai", cfg.Provider)
	}
}

// GenerationOptions are sampling settings shared by all generators.
type GenerationOptions struct {
	Temperature float64
	MaxTokens   int
}
