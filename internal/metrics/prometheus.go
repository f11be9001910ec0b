package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the question service
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	Questions        *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	StageFailures    *prometheus.CounterVec
	SynthesisSkipped prometheus.Counter
	InFlight         prometheus.Gauge
	Confidence       prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Questions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podask_questions_total",
			Help: "Questions handled, by outcome",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podask_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"stage"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podask_stage_failures_total",
			Help: "Pipeline stage failures",
		}, []string{"stage"}),
		SynthesisSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "podask_synthesis_skipped_total",
			Help: "Answers returned without audio",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "podask_questions_in_flight",
			Help: "Questions currently being processed",
		}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "podask_transcription_confidence",
			Help:    "Reported transcription confidence",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podask_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podask_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveStage records how long a stage took and whether it failed.
func (m *Metrics) ObserveStage(stage string, start time.Time, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}
