package stt_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podask/internal/config"
	"podask/internal/stt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeAudio(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestWhisperProvider_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		assert.Equal(t, "This is a clear question about a podcast.", r.FormValue("prompt"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  hey pod, who hosts the show?  "}`))
	}))
	defer srv.Close()

	p := stt.NewWhisperProvider("sk-test", srv.URL, stt.WhisperOptions{
		Model:    "whisper-1",
		Language: "en",
		Prompt:   "This is a clear question about a podcast.",
	}, discardLogger())

	res, err := p.Transcribe(context.Background(), writeAudio(t, "q.wav", 64))
	require.NoError(t, err)
	assert.Equal(t, "hey pod, who hosts the show?", res.Transcript)
	assert.InDelta(t, stt.PlaceholderConfidence, res.Confidence, 1e-9)
	assert.False(t, res.Measured)
	assert.Equal(t, "whisper", res.Provider)
	assert.Equal(t, "whisper-1", p.Model())
}

func TestWhisperProvider_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"server melted","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := stt.NewWhisperProvider("sk-test", srv.URL, stt.WhisperOptions{}, discardLogger())
	_, err := p.Transcribe(context.Background(), writeAudio(t, "q.wav", 64))
	require.Error(t, err)
}

const testGoogleKey = "AIzaSy" + "abcdefghijklmnopqrstuvwxyz0123456"

func TestGoogleProvider_TranscribeWithAPIKey(t *testing.T) {
	require.True(t, stt.IsGoogleAPIKey(testGoogleKey))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech:recognize", r.URL.Path)
		assert.Equal(t, testGoogleKey, r.URL.Query().Get("key"))

		var body struct {
			Config struct {
				Encoding     string `json:"encoding"`
				LanguageCode string `json:"languageCode"`
			} `json:"config"`
			Audio struct {
				Content string `json:"content"`
			} `json:"audio"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "LINEAR16", body.Config.Encoding)
		assert.Equal(t, "en", body.Config.LanguageCode)
		decoded, err := base64.StdEncoding.DecodeString(body.Audio.Content)
		require.NoError(t, err)
		assert.Len(t, decoded, 2000)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"hey pod what is next","confidence":0.93}]}]}`))
	}))
	defer srv.Close()

	p, err := stt.NewGoogleProvider(context.Background(), stt.GoogleConfig{
		Key:      testGoogleKey,
		Language: "en",
		BaseURL:  srv.URL,
	}, discardLogger())
	require.NoError(t, err)

	res, err := p.Transcribe(context.Background(), writeAudio(t, "q_opt.wav", 2000))
	require.NoError(t, err)
	assert.Equal(t, "hey pod what is next", res.Transcript)
	assert.InDelta(t, 0.93, res.Confidence, 1e-9)
	assert.True(t, res.Measured)
}

func TestGoogleProvider_NoSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, err := stt.NewGoogleProvider(context.Background(), stt.GoogleConfig{Key: testGoogleKey, BaseURL: srv.URL}, discardLogger())
	require.NoError(t, err)

	_, err = p.Transcribe(context.Background(), writeAudio(t, "q.wav", 2000))
	require.ErrorIs(t, err, stt.ErrEmptyTranscript)
}

func TestGoogleProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API disabled","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	p, err := stt.NewGoogleProvider(context.Background(), stt.GoogleConfig{Key: testGoogleKey, BaseURL: srv.URL}, discardLogger())
	require.NoError(t, err)

	_, err = p.Transcribe(context.Background(), writeAudio(t, "q.wav", 2000))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "API disabled"))
}

func TestGoogleProvider_TooSmall(t *testing.T) {
	p, err := stt.NewGoogleProvider(context.Background(), stt.GoogleConfig{Key: testGoogleKey}, discardLogger())
	require.NoError(t, err)

	_, err = p.Transcribe(context.Background(), writeAudio(t, "q.wav", 10))
	require.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := stt.NewProvider(ctx, config.STTConfig{Provider: "whisper", Model: "whisper-1", APIKey: "sk"}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "whisper", p.Name())

	_, err = stt.NewProvider(ctx, config.STTConfig{Provider: "whisper"}, discardLogger())
	require.Error(t, err)

	p, err = stt.NewProvider(ctx, config.STTConfig{Provider: "google", GoogleKey: testGoogleKey}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	_, err = stt.NewProvider(ctx, config.STTConfig{Provider: "google", GoogleKey: "/no/such/key.json"}, discardLogger())
	require.Error(t, err)

	_, err = stt.NewProvider(ctx, config.STTConfig{Provider: "vosk"}, discardLogger())
	require.Error(t, err)
}
