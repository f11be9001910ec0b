// Package pipeline answers a recorded question: transcribe, validate,
// generate, synthesize.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"podask/internal/ai"
	"podask/internal/metrics"
	"podask/internal/model"
	"podask/internal/storage"
	"podask/internal/stt"
)

const (
	stageTranscribe = "transcribe"
	stageGenerate   = "generate"
	stageSynthesize = "synthesize"
)

// Options tunes a Pipeline.
type Options struct {
	Deployment        string
	TempDir           string
	WakePhrases       []string
	MinQuestionLength int
	// MaxInFlight bounds concurrent questions; extra requests wait their turn.
	MaxInFlight int64
	// AudioURLPrefix is prepended to stored answer names, e.g. "/audio/".
	AudioURLPrefix string
}

type Pipeline struct {
	services    Services
	opts        Options
	store       storage.Store
	transcriber *stt.Transcriber
	gate        *semaphore.Weighted
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// New builds a Pipeline. normalizer may be nil to skip audio optimization.
func New(services Services, opts Options, store storage.Store, normalizer stt.Normalizer, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 1
	}
	if opts.MinQuestionLength < 1 {
		opts.MinQuestionLength = 3
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.AudioURLPrefix == "" {
		opts.AudioURLPrefix = "/audio/"
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		services: services,
		opts:     opts,
		store:    store,
		gate:     semaphore.NewWeighted(opts.MaxInFlight),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	if services.STT != nil {
		p.transcriber = stt.NewTranscriber(services.STT, normalizer, opts.WakePhrases, logger)
	}
	return p
}

// CheckReady returns ErrSTTUnavailable or ErrLLMUnavailable when an engine
// the request needs is absent.
func (p *Pipeline) CheckReady() error {
	return p.services.Ready()
}

// Health reports engine availability.
func (p *Pipeline) Health() Health {
	return p.services.Health(p.opts.Deployment, p.store.Name())
}

// Ask answers the question recorded in r. filename is the client's name for
// the upload and only its extension is used. Every temp file created on the
// way is removed before Ask returns. Failures are *Error values.
func (p *Pipeline) Ask(ctx context.Context, filename string, r io.Reader) (*model.Exchange, error) {
	if err := p.CheckReady(); err != nil {
		p.metrics.Questions.WithLabelValues(KindUnavailable.String()).Inc()
		return nil, err
	}

	if err := p.gate.Acquire(ctx, 1); err != nil {
		return nil, newError(KindInternal, "Processing failed", err)
	}
	defer p.gate.Release(1)

	p.metrics.InFlight.Inc()
	defer p.metrics.InFlight.Dec()

	exchange, err := p.ask(ctx, filename, r)
	if err != nil {
		p.metrics.Questions.WithLabelValues(KindOf(err).String()).Inc()
		return nil, err
	}
	p.metrics.Questions.WithLabelValues("answered").Inc()
	return exchange, nil
}

func (p *Pipeline) ask(ctx context.Context, filename string, r io.Reader) (*model.Exchange, error) {
	id := uuid.New()
	logger := p.logger.With("request_id", id.String())

	upload, err := storage.SaveUpload(p.opts.TempDir, filename, r)
	if err != nil {
		logger.Error("failed to save upload", "error", err)
		return nil, newError(KindInternal, "Processing failed", err)
	}
	defer func() {
		if err := os.Remove(upload); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove upload", "path", upload, "error", err)
		}
	}()

	start := time.Now()
	result, err := p.transcriber.Transcribe(ctx, upload)
	p.metrics.ObserveStage(stageTranscribe, start, err)
	if err != nil {
		logger.Warn("transcription failed", "stage", stageTranscribe, "error", err)
		return nil, newError(KindTranscription, "Could not understand audio", err)
	}
	p.metrics.Confidence.Observe(result.Confidence)

	question := result.Transcript
	if utf8.RuneCountInString(strings.TrimSpace(question)) < p.opts.MinQuestionLength {
		logger.Info("question too short", "question", question, "raw", result.RawTranscript)
		return nil, ErrQuestionShort
	}

	start = time.Now()
	answer, err := p.services.LLM.Generate(ctx, ai.BuildAnswerPrompt(question))
	p.metrics.ObserveStage(stageGenerate, start, err)
	if err != nil {
		logger.Error("answer generation failed", "stage", stageGenerate, "error", err)
		return nil, newError(KindGeneration, "AI response failed", err)
	}
	answer = ai.StripFormatting(answer)

	exchange := &model.Exchange{
		ID:         id,
		Question:   question,
		Response:   answer,
		AudioURL:   p.synthesize(ctx, logger, answer),
		Confidence: result.Confidence,
		Deployment: p.opts.Deployment,
		CreatedAt:  p.now(),
	}

	logger.Info("question answered",
		"question", question,
		"answer_length", len(answer),
		"has_audio", exchange.AudioURL != nil,
	)
	return exchange, nil
}

// synthesize never fails the request: any problem is logged and the answer
// goes out without audio.
func (p *Pipeline) synthesize(ctx context.Context, logger *slog.Logger, text string) *string {
	if p.services.TTS == nil {
		p.metrics.SynthesisSkipped.Inc()
		logger.Debug("speech synthesis unavailable, skipping", "stage", stageSynthesize)
		return nil
	}

	start := time.Now()
	audio, err := p.services.TTS.Synthesize(ctx, text)
	if err == nil {
		name := storage.AnswerFileName(p.now(), audio.Format)
		if err = p.store.Save(ctx, name, audio.Data); err == nil {
			p.metrics.ObserveStage(stageSynthesize, start, nil)
			url := p.opts.AudioURLPrefix + name
			return &url
		}
	}

	p.metrics.ObserveStage(stageSynthesize, start, err)
	p.metrics.SynthesisSkipped.Inc()
	logger.Warn("speech synthesis failed, answering without audio", "stage", stageSynthesize, "error", err)
	return nil
}

// Audio returns a stored answer file.
func (p *Pipeline) Audio(ctx context.Context, name string) ([]byte, error) {
	return p.store.Load(ctx, name)
}
