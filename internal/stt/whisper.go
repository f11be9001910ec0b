package stt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// WhisperOptions are the decoding hints sent with every request.
type WhisperOptions struct {
	Model    string
	Language string
	Prompt   string
}

// WhisperProvider implements STT using the OpenAI transcription API.
// Whisper reports no confidence, so results carry PlaceholderConfidence.
type WhisperProvider struct {
	client *openai.Client
	opts   WhisperOptions
	logger *slog.Logger
}

func NewWhisperProvider(apiKey, baseURL string, opts WhisperOptions, logger *slog.Logger) *WhisperProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if opts.Model == "" {
		opts.Model = openai.Whisper1
	}
	return &WhisperProvider{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}
}

func (p *WhisperProvider) Name() string {
	return "whisper"
}

func (p *WhisperProvider) Model() string {
	return p.opts.Model
}

// Transcribe runs with temperature 0 and a fixed language and prompt. Every
// request stands alone; no earlier transcript is passed as context.
func (p *WhisperProvider) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	start := time.Now()

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       p.opts.Model,
		FilePath:    audioPath,
		Prompt:      p.opts.Prompt,
		Temperature: 0,
		Language:    p.opts.Language,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	p.logger.Debug("whisper transcription done",
		"length", len(text),
		"duration", time.Since(start),
	)

	return &Result{
		Transcript:    text,
		RawTranscript: resp.Text,
		Confidence:    PlaceholderConfidence,
		Measured:      false,
		Provider:      p.Name(),
	}, nil
}
