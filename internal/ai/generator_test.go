package ai_test

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

	"podask/internal/ai"
	"podask/internal/config"
)

func TestGeminiGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gem-key", r.URL.Query().Get("key"))

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				MaxOutputTokens int     `json:"maxOutputTokens"`
				Temperature     float64 `json:"temperature"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "the prompt", body.Contents[0].Parts[0].Text)
		assert.Equal(t, 256, body.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" It is a **great** show. "}]}}]}`))
	}))
	defer srv.Close()

	g := ai.NewGeminiGenerator("gem-key", "", srv.URL, ai.GenerationOptions{Temperature: 0.7, MaxTokens: 256})
	assert.Equal(t, "gemini-2.0-flash", g.Model())

	text, err := g.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "It is a **great** show.", text)
}

func TestGeminiGenerator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: `{"error":{"message":"quota"}}`},
		{name: "api error in body", status: http.StatusOK, body: `{"error":{"message":"blocked","code":400}}`},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, is: ai.ErrEmptyAnswer},
		{name: "blank text", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`, is: ai.ErrEmptyAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := ai.NewGeminiGenerator("k", "m", srv.URL, ai.GenerationOptions{}).Generate(context.Background(), "p")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "the prompt", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Sure thing."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g := ai.NewOpenAIGenerator("sk", "gpt-4o-mini", srv.URL, ai.GenerationOptions{Temperature: 0.7, MaxTokens: 128})
	text, err := g.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", text)
}

func TestNewGenerator(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	g, err := ai.NewGenerator(config.LLMConfig{Provider: "gemini", Model: "gemini-2.0-flash", APIKey: "k"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Name())

	g, err = ai.NewGenerator(config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())

	_, err = ai.NewGenerator(config.LLMConfig{Provider: "gemini"}, logger)
	require.Error(t, err)

	_, err = ai.NewGenerator(config.LLMConfig{Provider: "claude", APIKey: "k"}, logger)
	require.Error(t, err)
}
