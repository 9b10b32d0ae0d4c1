// Package metrics provides observability for the transition engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the engine does per sample. All methods are nil-safe
// so tests can run without a registry.
type Metrics struct {
	SamplesTotal     *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	SideEffectErrors *prometheus.CounterVec
	EvaluateLatency  prometheus.Histogram
	RegionsPerSample prometheus.Histogram
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		SamplesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roadwatch_fence_samples_total",
			Help: "Location samples processed, by outcome (processed, noop, error)",
		}, []string{"outcome"}),

		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roadwatch_fence_transitions_total",
			Help: "Region transitions recorded, by action and region category",
		}, []string{"action", "category"}),

		SideEffectErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roadwatch_fence_side_effect_errors_total",
			Help: "Side-effect delivery failures, by kind (ledger, notification, alert, stream)",
		}, []string{"kind"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "roadwatch_fence_evaluate_duration_seconds",
			Help:    "Duration of full sample evaluation including side effects",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		RegionsPerSample: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "roadwatch_fence_regions_per_sample",
			Help:    "Active regions evaluated per sample",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}
}

// IncSample records a processed sample by outcome.
func (m *Metrics) IncSample(outcome string) {
	if m != nil {
		m.SamplesTotal.WithLabelValues(outcome).Inc()
	}
}

// IncTransition records one recorded transition.
func (m *Metrics) IncTransition(action, category string) {
	if m != nil {
		m.TransitionsTotal.WithLabelValues(action, category).Inc()
	}
}

// IncSideEffectError records a failed side effect by kind.
func (m *Metrics) IncSideEffectError(kind string) {
	if m != nil {
		m.SideEffectErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveEvaluate records the total evaluation duration.
func (m *Metrics) ObserveEvaluate(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// ObserveRegionCount records how many regions one sample touched.
func (m *Metrics) ObserveRegionCount(n int) {
	if m != nil {
		m.RegionsPerSample.Observe(float64(n))
	}
}
