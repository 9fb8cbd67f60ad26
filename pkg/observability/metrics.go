package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pathquiz"

// Metrics holds the quiz collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Transitions        *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	Completions        *prometheus.CounterVec
	Restarts           prometheus.Counter
	TransitionDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
// Process and Go runtime collectors are included so /metrics is useful on its own.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Step transitions started, by direction.",
			},
			[]string{"direction"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_inputs_total",
				Help:      "Ignored user inputs, by action and reason.",
			},
			[]string{"action", "reason"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Completed quizzes, by result title.",
			},
			[]string{"result"},
		),
		Restarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "restarts_total",
				Help:      "Quiz restarts.",
			},
		),
		TransitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transition_duration_seconds",
				Help:      "Time the transition lock was held.",
				Buckets:   []float64{.05, .1, .2, .3, .35, .4, .5, .75, 1},
			},
			[]string{"direction"},
		),
	}

	m.registry.MustRegister(
		m.Transitions,
		m.Rejections,
		m.Completions,
		m.Restarts,
		m.TransitionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records engine events into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			switch e.Phase {
			case domain.PhaseStarted:
				m.Transitions.WithLabelValues(string(e.Direction)).Inc()
			case domain.PhaseSettled:
				m.TransitionDuration.WithLabelValues(string(e.Direction)).Observe(e.Elapsed.Seconds())
			}
		},
		OnReject: func(ctx context.Context, e *domain.RejectEvent) {
			m.Rejections.WithLabelValues(e.Action, string(e.Reason)).Inc()
		},
		OnComplete: func(ctx context.Context, e *domain.CompleteEvent) {
			title := "unknown"
			if e.Result != nil {
				title = e.Result.Title
			}
			m.Completions.WithLabelValues(title).Inc()
		},
		OnRestart: func(ctx context.Context, e *domain.RestartEvent) {
			m.Restarts.Inc()
		},
	}
}
