package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleSpeechURL = "https://speech.googleapis.com"
	googleScope     = "https://www.googleapis.com/auth/cloud-platform"
	minAudioBytes   = 1000
)

// GoogleConfig configures GoogleProvider.
// Key can be either:
//   - An API key (39 characters, typically starts with "AIzaSy")
//   - A file path to a JSON service account key
//   - The JSON service account key itself
//
// An empty Key falls back to application default credentials.
type GoogleConfig struct {
	ProjectID string
	Key       string
	Language  string
	Model     string
	BaseURL   string
}

// GoogleProvider implements STT using Google Cloud Speech-to-Text REST API.
// Unlike Whisper it returns the engine's own confidence score.
type GoogleProvider struct {
	cfg        GoogleConfig
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// IsGoogleAPIKey reports whether key looks like a Google API key rather than
// service account credentials.
func IsGoogleAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	return len(key) == 39 && strings.HasPrefix(key, "AIzaSy")
}

func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, logger *slog.Logger) (*GoogleProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = googleSpeechURL
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	key := strings.TrimSpace(cfg.Key)

	if IsGoogleAPIKey(key) {
		logger.Info("google stt using api key authentication")
		return &GoogleProvider{
			cfg:        cfg,
			apiKey:     key,
			httpClient: &http.Client{Timeout: 90 * time.Second},
			logger:     logger,
		}, nil
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("google stt: project id is required when using service account credentials")
	}

	var creds *google.Credentials
	var err error
	switch {
	case key == "":
		creds, err = google.FindDefaultCredentials(ctx, googleScope)
		if err != nil {
			return nil, fmt.Errorf("google stt: finding default credentials: %w", err)
		}
	default:
		jsonData := []byte(key)
		if !strings.HasPrefix(key, "{") {
			logger.Info("google stt reading key file", "path", key)
			jsonData, err = os.ReadFile(key)
			if err != nil {
				return nil, fmt.Errorf("google stt: reading key file %q: %w", key, err)
			}
		}
		creds, err = google.CredentialsFromJSON(ctx, jsonData, googleScope)
		if err != nil {
			return nil, fmt.Errorf("google stt: parsing credentials: %w", err)
		}
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 90 * time.Second

	logger.Info("google stt using service account", "project", cfg.ProjectID)
	return &GoogleProvider{
		cfg:        cfg,
		httpClient: client,
		logger:     logger,
	}, nil
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) Model() string {
	if p.cfg.Model == "" {
		return "default"
	}
	return p.cfg.Model
}

type googleRecognizeRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  googleRecognitionAudio  `json:"audio"`
}

type googleRecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz,omitempty"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model,omitempty"`
}

type googleRecognitionAudio struct {
	Content string `json:"content"` // Base64 encoded
}

type googleRecognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *googleAPIError `json:"error,omitempty"`
}

type googleAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Transcribe transcribes an audio file using Google Cloud Speech-to-Text REST API
func (p *GoogleProvider) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	start := time.Now()

	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(audioBytes) < minAudioBytes {
		return nil, fmt.Errorf("audio file too small (%d bytes), may be empty or corrupted", len(audioBytes))
	}

	encoding, sampleRate := googleAudioConfig(filepath.Ext(audioPath))
	reqJSON, err := json.Marshal(googleRecognizeRequest{
		Config: googleRecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            sampleRate,
			LanguageCode:               p.cfg.Language,
			EnableAutomaticPunctuation: true,
			Model:                      p.cfg.Model,
		},
		Audio: googleRecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audioBytes),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Google Speech-to-Text: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var sttResp googleRecognizeResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &sttResp) == nil && sttResp.Error != nil {
			return nil, fmt.Errorf("google speech-to-text error %d (%s): %s",
				sttResp.Error.Code, sttResp.Error.Status, sttResp.Error.Message)
		}
		return nil, fmt.Errorf("google speech-to-text returned status %d: %s", resp.StatusCode, preview(body))
	}

	if err := json.Unmarshal(body, &sttResp); err != nil {
		return nil, fmt.Errorf("failed to parse Google Speech-to-Text response: %w", err)
	}
	if sttResp.Error != nil {
		return nil, fmt.Errorf("google speech-to-text error: %s", sttResp.Error.Message)
	}

	var parts []string
	var confidence float64
	for i, r := range sttResp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(r.Alternatives[0].Transcript))
		if i == 0 {
			confidence = r.Alternatives[0].Confidence
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	p.logger.Debug("google transcription done",
		"confidence", confidence,
		"length", len(transcript),
		"duration", time.Since(start),
	)

	return &Result{
		Transcript:    transcript,
		RawTranscript: transcript,
		Confidence:    confidence,
		Measured:      true,
		Provider:      p.Name(),
	}, nil
}

func (p *GoogleProvider) endpoint() string {
	if p.apiKey != "" {
		return fmt.Sprintf("%s/v1/speech:recognize?key=%s", p.cfg.BaseURL, p.apiKey)
	}
	return fmt.Sprintf("%s/v1/projects/%s:recognize", p.cfg.BaseURL, p.cfg.ProjectID)
}

// googleAudioConfig determines encoding and sample rate based on file extension.
// WAV headers carry their own rate, so none is sent for them.
func googleAudioConfig(fileExt string) (string, int) {
	switch strings.ToLower(fileExt) {
	case ".wav":
		return "LINEAR16", 0
	case ".mp3":
		return "MP3", 44100
	case ".ogg", ".opus":
		return "OGG_OPUS", 48000
	case ".webm":
		return "WEBM_OPUS", 48000
	case ".flac":
		return "FLAC", 0
	default:
		return "LINEAR16", 16000
	}
}

func preview(body []byte) string {
	const limit = 500
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
