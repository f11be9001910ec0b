package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Audio   AudioConfig   `yaml:"audio"`
	STT     STTConfig     `yaml:"stt"`
	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	Deployment     string   `yaml:"deployment"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	MaxInFlight    int64    `yaml:"max_in_flight"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AudioConfig controls the normalizer applied before transcription.
type AudioConfig struct {
	Optimize         *bool   `yaml:"optimize"`
	TargetSampleRate int     `yaml:"target_sample_rate"`
	ThresholdDB      float64 `yaml:"threshold_db"`
	Ratio            float64 `yaml:"ratio"`
	AttackMS         float64 `yaml:"attack_ms"`
	ReleaseMS        float64 `yaml:"release_ms"`
	HeadroomDB       float64 `yaml:"headroom_db"`
	FFmpegPath       string  `yaml:"ffmpeg_path"`
}

type STTConfig struct {
	Provider          string   `yaml:"provider"`
	Model             string   `yaml:"model"`
	Language          string   `yaml:"language"`
	Prompt            string   `yaml:"prompt"`
	WakePhrases       []string `yaml:"wake_phrases"`
	MinQuestionLength int      `yaml:"min_question_length"`
	APIKey            string   `yaml:"api_key"`
	BaseURL           string   `yaml:"base_url"`
	GoogleProjectID   string   `yaml:"google_project_id"`
	// GoogleKey is an API key, a path to a service account JSON file or the JSON itself.
	GoogleKey string `yaml:"google_key"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type TTSConfig struct {
	Provider string `yaml:"provider"`
	Voice    string `yaml:"voice"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type StorageConfig struct {
	Backend      string `yaml:"backend"`
	ResponsesDir string `yaml:"responses_dir"`
	TempDir      string `yaml:"temp_dir"`
	NatsURL      string `yaml:"nats_url"`
	NatsBucket   string `yaml:"nats_bucket"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, expanding environment variables, and
// fills everything left unset from the environment and built-in defaults.
// An empty path or a missing file yields a configuration built from the
// environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// OptimizeAudio reports whether the normalizer runs before transcription.
func (a AudioConfig) OptimizeAudio() bool {
	return a.Optimize == nil || *a.Optimize
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":" + getEnv("PORT", "5001")
	}
	if c.Server.Deployment == "" {
		c.Server.Deployment = getEnv("DEPLOYMENT", "local")
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 50 * 1024 * 1024
	}
	if c.Server.MaxInFlight == 0 {
		c.Server.MaxInFlight = 1
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Audio.TargetSampleRate == 0 {
		c.Audio.TargetSampleRate = 16000
	}
	if c.Audio.ThresholdDB == 0 {
		c.Audio.ThresholdDB = -20.0
	}
	if c.Audio.Ratio == 0 {
		c.Audio.Ratio = 3.0
	}
	if c.Audio.AttackMS == 0 {
		c.Audio.AttackMS = 5
	}
	if c.Audio.ReleaseMS == 0 {
		c.Audio.ReleaseMS = 50
	}
	if c.Audio.HeadroomDB == 0 {
		c.Audio.HeadroomDB = 0.1
	}
	if c.Audio.FFmpegPath == "" {
		c.Audio.FFmpegPath = os.Getenv("FFMPEG_PATH")
	}

	c.STT.Provider = strings.ToLower(c.STT.Provider)
	if c.STT.Provider == "" {
		c.STT.Provider = getEnv("STT_PROVIDER", "whisper")
	}
	if c.STT.Model == "" {
		c.STT.Model = "whisper-1"
	}
	if c.STT.Language == "" {
		c.STT.Language = "en"
	}
	if c.STT.Prompt == "" {
		c.STT.Prompt = "This is a clear question about a podcast."
	}
	if c.STT.WakePhrases == nil {
		c.STT.WakePhrases = []string{"hey pod", "hey pot", "pod"}
	}
	if c.STT.MinQuestionLength == 0 {
		c.STT.MinQuestionLength = 3
	}
	if c.STT.APIKey == "" {
		c.STT.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.STT.GoogleProjectID == "" {
		c.STT.GoogleProjectID = os.Getenv("GOOGLE_STT_PROJECT_ID")
	}
	if c.STT.GoogleKey == "" {
		c.STT.GoogleKey = os.Getenv("GOOGLE_STT_KEY_FILE")
	}

	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Provider == "" {
		c.LLM.Provider = getEnv("LLM_PROVIDER", "gemini")
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.Model = "gpt-4o-mini"
		default:
			c.LLM.Model = "gemini-2.0-flash"
		}
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 256
	}

	c.TTS.Provider = strings.ToLower(c.TTS.Provider)
	if c.TTS.Provider == "" {
		c.TTS.Provider = getEnv("TTS_PROVIDER", "elevenlabs")
	}
	switch c.TTS.Provider {
	case "openai":
		if c.TTS.Voice == "" {
			c.TTS.Voice = "alloy"
		}
		if c.TTS.Model == "" {
			c.TTS.Model = "tts-1"
		}
		if c.TTS.APIKey == "" {
			c.TTS.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "elevenlabs":
		if c.TTS.Voice == "" {
			c.TTS.Voice = "N2lVS1w4EtoT3dr4eOWO" // Callum
		}
		if c.TTS.Model == "" {
			c.TTS.Model = "eleven_monolingual_v1"
		}
		if c.TTS.APIKey == "" {
			c.TTS.APIKey = os.Getenv("ELEVENLABS_API_KEY")
		}
	}

	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Storage.Backend == "" {
		c.Storage.Backend = getEnv("STORAGE_BACKEND", "file")
	}
	if c.Storage.ResponsesDir == "" {
		c.Storage.ResponsesDir = "audio/responses"
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = os.TempDir()
	}
	if c.Storage.NatsURL == "" {
		c.Storage.NatsURL = getEnv("NATS_URL", "nats://127.0.0.1:4222")
	}
	if c.Storage.NatsBucket == "" {
		c.Storage.NatsBucket = "ANSWER_AUDIO"
	}

	if c.Log.Level == "" {
		c.Log.Level = getEnv("LOG_LEVEL", "info")
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server: max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.MaxInFlight < 1 {
		return fmt.Errorf("server: max_in_flight must be at least 1, got %d", c.Server.MaxInFlight)
	}

	if c.Audio.TargetSampleRate <= 0 {
		return fmt.Errorf("audio: target_sample_rate must be positive, got %d", c.Audio.TargetSampleRate)
	}
	if c.Audio.Ratio < 1 {
		return fmt.Errorf("audio: ratio must be >= 1, got %.2f", c.Audio.Ratio)
	}
	if c.Audio.ThresholdDB > 0 {
		return fmt.Errorf("audio: threshold_db must be <= 0, got %.2f", c.Audio.ThresholdDB)
	}

	if c.STT.MinQuestionLength < 1 {
		return fmt.Errorf("stt: min_question_length must be at least 1, got %d", c.STT.MinQuestionLength)
	}
	if err := oneOf("stt.provider", c.STT.Provider, "whisper", "google"); err != nil {
		return err
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "gemini", "openai"); err != nil {
		return err
	}
	if err := oneOf("tts.provider", c.TTS.Provider, "elevenlabs", "openai", "none"); err != nil {
		return err
	}
	if err := oneOf("storage.backend", c.Storage.Backend, "file", "nats"); err != nil {
		return err
	}

	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %q (supported: %s)", field, value, strings.Join(allowed, ", "))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
