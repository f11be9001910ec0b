package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"podask/internal/ai"
	"podask/internal/api"
	"podask/internal/audio"
	"podask/internal/config"
	"podask/internal/metrics"
	"podask/internal/pipeline"
	"podask/internal/storage"
	"podask/internal/stt"
	"podask/internal/tts"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services := buildServices(ctx, cfg, logger)

	store, closeStore, err := buildStore(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var normalizer stt.Normalizer
	if cfg.Audio.OptimizeAudio() {
		normalizer = audio.NewNormalizer(audio.Options{
			TargetSampleRate: cfg.Audio.TargetSampleRate,
			HeadroomDB:       cfg.Audio.HeadroomDB,
			Compressor: audio.CompressorSettings{
				ThresholdDB: cfg.Audio.ThresholdDB,
				Ratio:       cfg.Audio.Ratio,
				AttackMS:    cfg.Audio.AttackMS,
				ReleaseMS:   cfg.Audio.ReleaseMS,
			},
			FFmpegPath: cfg.Audio.FFmpegPath,
		}, logger)
	}

	m := metrics.New()
	p := pipeline.New(services, pipeline.Options{
		Deployment:        cfg.Server.Deployment,
		TempDir:           cfg.Storage.TempDir,
		WakePhrases:       cfg.STT.WakePhrases,
		MinQuestionLength: cfg.STT.MinQuestionLength,
		MaxInFlight:       cfg.Server.MaxInFlight,
	}, store, normalizer, m, logger)

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(p, api.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, m, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		health := p.Health()
		logger.Info("podask backend running",
			"addr", cfg.Server.Addr,
			"deployment", cfg.Server.Deployment,
			"status", health.Status,
			"transcription", health.Transcription,
			"generation", health.Generation,
			"synthesis", health.Synthesis,
			"storage", health.Storage,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// buildServices creates each engine. A failure is logged and leaves the
// handle empty so /health can report it and requests fail with 503.
func buildServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) pipeline.Services {
	var services pipeline.Services

	if p, err := stt.NewProvider(ctx, cfg.STT, logger); err != nil {
		logger.Warn("speech recognition unavailable", "provider", cfg.STT.Provider, "error", err)
	} else {
		services.STT = p
	}

	if g, err := ai.NewGenerator(cfg.LLM, logger); err != nil {
		logger.Warn("answer generation unavailable", "provider", cfg.LLM.Provider, "error", err)
	} else {
		services.LLM = g
	}

	if s, err := tts.NewSynthesizer(cfg.TTS, logger); err != nil {
		logger.Warn("speech synthesis unavailable", "provider", cfg.TTS.Provider, "error", err)
	} else if s != nil {
		services.TTS = s
	}

	return services
}

func buildStore(cfg config.StorageConfig, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Backend {
	case "nats":
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("podask"))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to nats at %s: %w", cfg.NatsURL, err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("creating jetstream context: %w", err)
		}
		store, err := storage.NewNatsStore(js, cfg.NatsBucket)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		logger.Info("answer audio stored in nats", "url", cfg.NatsURL, "bucket", cfg.NatsBucket)
		return store, nc.Close, nil
	default:
		store, err := storage.NewFileStore(cfg.ResponsesDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("answer audio stored on disk", "dir", cfg.ResponsesDir)
		return store, func() {}, nil
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
