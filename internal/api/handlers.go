package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"podask/internal/metrics"
	"podask/internal/pipeline"
	"podask/internal/storage"
	"podask/internal/utils"
)

// Options configures the HTTP layer.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
}

type handlers struct {
	pipeline       *pipeline.Pipeline
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(p *pipeline.Pipeline, opts Options, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := gin.New()
	r.Use(recovery(logger), requestLogger(logger), metricsMiddleware(m), corsMiddleware(opts.AllowedOrigins))

	RegisterRoutes(r, p, opts, m, logger)
	return r
}

func RegisterRoutes(r *gin.Engine, p *pipeline.Pipeline, opts Options, m *metrics.Metrics, logger *slog.Logger) {
	h := &handlers{
		pipeline:       p,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         logger,
	}

	r.GET("/health", h.healthCheck)
	r.POST("/ask-question", h.askQuestion)
	r.GET("/audio/:filename", h.serveAudio)
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

// healthCheck reports which engines are usable
func (h *handlers) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Health())
}

// askQuestion answers the recording in the multipart field "audio"
func (h *handlers) askQuestion(c *gin.Context) {
	// Engines are checked before the upload is read.
	if err := h.pipeline.CheckReady(); err != nil {
		h.fail(c, err)
		return
	}

	if c.Request.ContentLength > h.maxUploadBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.logger.Debug("no audio in request", "error", err)
		h.fail(c, pipeline.ErrNoAudio)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	exchange, err := h.pipeline.Ask(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("X-Request-ID", exchange.ID.String())
	c.JSON(http.StatusOK, exchange)
}

// serveAudio returns a previously synthesized answer
func (h *handlers) serveAudio(c *gin.Context) {
	name := c.Param("filename")

	data, err := h.pipeline.Audio(c.Request.Context(), name)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
		utils.Error(c, http.StatusNotFound, "Audio file not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load audio", "name", name, "error", err)
		utils.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *handlers) fail(c *gin.Context, err error) {
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		utils.Error(c, pe.Kind.Status(), pe.Message)
		return
	}
	h.logger.Error("request failed", "error", err)
	utils.Error(c, http.StatusInternalServerError, "Processing failed: "+err.Error())
}
