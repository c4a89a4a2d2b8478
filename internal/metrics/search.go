package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collecta",
			Name:      "search_requests_total",
			Help:      "Total search requests by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	SearchCandidateHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "collecta",
			Name:      "search_candidate_hits",
			Help:      "Chunk hits returned by the index per search",
			Buckets:   []float64{0, 10, 50, 100, 300, 600, 1000, 3000},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCandidateHits)
	searchMetricsRegistered = true
}
