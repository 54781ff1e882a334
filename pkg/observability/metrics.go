package observability

import (
	"context"
	"errors"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client-side Prometheus collectors.
type Metrics struct {
	transformations *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transformations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_client_transformations_total",
				Help: "Transformation exchanges by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_client_transform_duration_seconds",
				Help:    "Duration of transformation exchanges",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_client_state_transitions_total",
				Help: "Request state transitions",
			},
			[]string{"from", "to"},
		),
	}
	reg.MustRegister(m.transformations, m.duration, m.transitions)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			m.transitions.WithLabelValues(string(e.From.Phase), string(e.To.Phase)).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.TransformEvent) {
			action := e.Action.String()
			m.transformations.WithLabelValues(action, Outcome(e.Err)).Inc()
			m.duration.WithLabelValues(action).Observe(e.Duration.Seconds())
		},
	}
}

// Outcome labels an exchange result: "ok" or the failure kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var te *domain.TransformError
	if errors.As(err, &te) {
		return string(te.Kind)
	}
	return "error"
}
