package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsSynthesizer implements Synthesizer using the ElevenLabs
// text-to-speech endpoint.
type ElevenLabsSynthesizer struct {
	apiKey     string
	voice      string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewElevenLabsSynthesizer(apiKey, voice, model, baseURL string) *ElevenLabsSynthesizer {
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	return &ElevenLabsSynthesizer{
		apiKey:     apiKey,
		voice:      voice,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *ElevenLabsSynthesizer) Name() string { return "elevenlabs" }

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: s.model})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, s.voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned no audio")
	}

	return &Audio{Data: audio, Format: "mp3", ContentType: "audio/mpeg"}, nil
}
