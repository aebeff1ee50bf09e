package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcomes recorded by LessonsTotal.
const (
	OutcomeSuccess       = "success"
	OutcomeQuotaExceeded = "quota_exceeded"
	OutcomeVideoFailed   = "video_failed"
	OutcomeVideoTimeout  = "video_timeout"
	OutcomeError         = "error"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	LessonsTotal       *prometheus.CounterVec
	VideoPollAttempts  prometheus.Histogram
	ImagesGenerated    prometheus.Counter
	ImageFailures      prometheus.Counter
	EntitlementChecks  *prometheus.CounterVec
	LessonStepDuration *prometheus.HistogramVec
}

// New creates a Metrics instance backed by its own registry, so tests can
// build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		LessonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lessons_generated_total",
				Help: "Lesson pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		VideoPollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "video_poll_attempts",
			Help:    "Status polls needed before a video was hosted",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		ImagesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "images_generated_total",
			Help: "Images returned by the image service",
		}),
		ImageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_failures_total",
			Help: "Image attempts skipped because the service did not return a PNG",
		}),
		EntitlementChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_checks_total",
				Help: "Entitlement lookups by resulting status",
			},
			[]string{"status"},
		),
		LessonStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lesson_step_duration_seconds",
				Help:    "Duration of each lesson pipeline step",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"step"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LessonsTotal,
		m.VideoPollAttempts,
		m.ImagesGenerated,
		m.ImageFailures,
		m.EntitlementChecks,
		m.LessonStepDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveStep records the duration of a pipeline step started at start.
func (m *Metrics) ObserveStep(step string, start time.Time) {
	m.LessonStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}
