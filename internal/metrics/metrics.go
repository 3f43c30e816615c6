package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "daymate"

// Metrics groups the Prometheus instruments for routing and generation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Routed             *prometheus.CounterVec
	Fallbacks          *prometheus.CounterVec
	Commands           *prometheus.CounterVec
	GenerationLatency  prometheus.Histogram
	RemindersDelivered prometheus.Counter
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Routed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "routed_lines_total",
			Help:      "Input lines by the tier that answered them.",
		}, []string{"tier"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Generative replies replaced by a default reply, by reason.",
		}, []string{"reason"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commands_total",
			Help:      "Slash commands by name.",
		}, []string{"command"}),
		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "generation_latency_ms",
			Help:      "Latency of generative backend calls in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000},
		}),
		RemindersDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reminders_delivered_total",
			Help:      "Due reminders delivered to the user.",
		}),
	}
}

func (m *Metrics) ObserveRoute(tier string) {
	if m == nil {
		return
	}
	m.Routed.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCommand(name string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveReminders(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RemindersDelivered.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
