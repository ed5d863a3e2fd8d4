// Package metrics exposes Prometheus collectors for extractions. All methods
// are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeComplete = "complete"
)

type Metrics struct {
	registry *prometheus.Registry

	extractions   *prometheus.CounterVec
	active        prometheus.Gauge
	duration      *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	reviews       prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New registers the collectors with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_extractions_total",
				Help: "Total number of extractions by outcome",
			},
			[]string{"outcome"},
		),
		active: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "review_extractions_active",
				Help: "Number of extractions currently running",
			},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "review_extraction_duration_seconds",
				Help:    "Duration of a whole extraction in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "review_stage_duration_seconds",
				Help: "Duration of each extraction stage in seconds",
			},
			[]string{"stage"},
		),
		reviews: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reviews_per_extraction",
				Help:    "Number of reviews returned per completed extraction",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selector_cache_lookups_total",
				Help: "Selector cache lookups by result",
			},
			[]string{"result"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ExtractionStarted() {
	if m == nil {
		return
	}
	m.active.Inc()
}

// ExtractionFinished records the outcome, which is OutcomeComplete or an
// error kind.
func (m *Metrics) ExtractionFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.active.Dec()
	m.extractions.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) StageFinished(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) ReviewsExtracted(n int) {
	if m == nil {
		return
	}
	m.reviews.Observe(float64(n))
}

// CacheResult satisfies inference.CacheObserver
func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
