package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "calbot"

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Turns      *prometheus.CounterVec
	TurnTime   *prometheus.HistogramVec
	StepVisits *prometheus.CounterVec
	Retries    *prometheus.CounterVec
	Interrupts prometheus.Counter
	Calls      *prometheus.HistogramVec
	CallErrors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Inbound turns by type and result.",
		}, []string{"type", "result"}),
		TurnTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent processing one turn.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		StepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_visits_total",
			Help:      "Step entries by sequence and step.",
		}, []string{"sequence", "step"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_retries_total",
			Help:      "Rejected replies by prompt.",
		}, []string{"sequence", "prompt"}),
		Interrupts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupts_total",
			Help:      "Sequences cancelled by the logout interrupt.",
		}),
		Calls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of calls to external services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		CallErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_errors_total",
			Help:      "Failed calls to external services.",
		}, []string{"operation"}),
	}
	m.registry.MustRegister(
		m.Turns, m.TurnTime, m.StepVisits, m.Retries, m.Interrupts, m.Calls, m.CallErrors,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, ev *domain.TurnEvent) {
			m.Turns.WithLabelValues(string(ev.Type), ev.Result).Inc()
			m.TurnTime.WithLabelValues(string(ev.Type)).Observe(ev.Duration.Seconds())
		},
		OnStepEnter: func(_ context.Context, ev *domain.StepEvent) {
			m.StepVisits.WithLabelValues(ev.Sequence, ev.Step).Inc()
		},
		OnPrompt: func(_ context.Context, ev *domain.PromptEvent) {
			if ev.Status == domain.PromptInvalid {
				m.Retries.WithLabelValues(ev.Sequence, ev.Prompt).Inc()
			}
		},
		OnSequenceEnd: func(_ context.Context, ev *domain.SequenceEvent) {
			if ev.Reason == "interrupt" {
				m.Interrupts.Inc()
			}
		},
		OnCall: func(_ context.Context, ev *domain.CallEvent) {
			m.Calls.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
			if ev.Err != nil {
				m.CallErrors.WithLabelValues(ev.Operation).Inc()
			}
		},
	}
}
