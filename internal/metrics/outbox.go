package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox publisher Prometheus metrics.
var (
	OutboxPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "collecta",
			Name:      "outbox_published_total",
			Help:      "Total outbox events appended to the stream and marked published",
		},
	)

	OutboxErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collecta",
			Name:      "outbox_errors_total",
			Help:      "Total outbox publisher failures",
		},
		[]string{"op"}, // "claim" / "append" / "mark"
	)

	OutboxCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "collecta",
			Name:      "outbox_cycle_duration_seconds",
			Help:      "Duration of one outbox publish cycle",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5},
		},
	)
)

var outboxMetricsRegistered bool

// RegisterOutboxMetrics registers the outbox metrics. Must be called once from main.
func RegisterOutboxMetrics() {
	if outboxMetricsRegistered {
		return
	}
	prometheus.MustRegister(OutboxPublishedTotal)
	prometheus.MustRegister(OutboxErrorsTotal)
	prometheus.MustRegister(OutboxCycleDuration)
	outboxMetricsRegistered = true
}
