package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer implements Synthesizer using the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	client *openai.Client
	voice  string
	model  string
}

func NewOpenAISynthesizer(apiKey, voice, model, baseURL string) *OpenAISynthesizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(cfg),
		voice:  voice,
		model:  model,
	}
}

func (s *OpenAISynthesizer) Name() string { return "openai" }

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("openai returned no audio")
	}

	return &Audio{Data: audio, Format: "mp3", ContentType: "audio/mpeg"}, nil
}
