package tts_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podask/internal/config"
	"podask/internal/tts"
)

var fakeMP3 = []byte{0xFF, 0xFB, 0x90, 0x64, 0x00}

func TestElevenLabsSynthesizer_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/voice-123", r.URL.Path)
		assert.Equal(t, "xi-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello there", body["text"])
		assert.Equal(t, "eleven_monolingual_v1", body["model_id"])

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(fakeMP3)
	}))
	defer srv.Close()

	s := tts.NewElevenLabsSynthesizer("xi-key", "voice-123", "eleven_monolingual_v1", srv.URL)
	audio, err := s.Synthesize(context.Background(), "Hello there")
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, audio.Data)
	assert.Equal(t, "mp3", audio.Format)
	assert.Equal(t, "audio/mpeg", audio.ContentType)
}

func TestElevenLabsSynthesizer_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	_, err := tts.NewElevenLabsSynthesizer("bad", "v", "m", srv.URL).Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAISynthesizer_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tts-1", body["model"])
		assert.Equal(t, "alloy", body["voice"])
		assert.Equal(t, "Hello there", body["input"])

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(fakeMP3)
	}))
	defer srv.Close()

	s := tts.NewOpenAISynthesizer("sk", "alloy", "tts-1", srv.URL)
	audio, err := s.Synthesize(context.Background(), "Hello there")
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, audio.Data)
	assert.Equal(t, "mp3", audio.Format)
}

func TestNewSynthesizer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := tts.NewSynthesizer(config.TTSConfig{Provider: "none"}, logger)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = tts.NewSynthesizer(config.TTSConfig{Provider: "elevenlabs", APIKey: "k", Voice: "v"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", s.Name())

	s, err = tts.NewSynthesizer(config.TTSConfig{Provider: "openai", APIKey: "k", Voice: "alloy", Model: "tts-1"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", s.Name())

	_, err = tts.NewSynthesizer(config.TTSConfig{Provider: "elevenlabs"}, logger)
	require.Error(t, err)

	_, err = tts.NewSynthesizer(config.TTSConfig{Provider: "polly", APIKey: "k"}, logger)
	require.Error(t, err)
}
