package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	cacheHits  prometheus.Counter
	inputBytes prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_service_transformations_total",
				Help: "Total number of transformation requests by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_service_generation_duration_seconds",
				Help:    "Duration of generator calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"action", "model"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quill_service_cache_hits_total",
				Help: "Total number of results served from the cache",
			},
		),
		inputBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quill_service_input_bytes",
				Help:    "Size of the text submitted for transformation",
				Buckets: prometheus.ExponentialBuckets(16, 4, 8),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.cacheHits, m.inputBytes)
	}
	return m
}

func (m *Metrics) observe(action, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) observeGeneration(action, model string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(action, model).Observe(d.Seconds())
}

func (m *Metrics) observeInput(n int) {
	if m == nil {
		return
	}
	m.inputBytes.Observe(float64(n))
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
