package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CacheLookups counts layered cache lookups by cache name and the layer
	// that answered (memory, store, origin, stale, none).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "porg",
			Name:      "cache_lookups_total",
			Help:      "Layered cache lookups by cache name and resolving layer.",
		},
		[]string{"cache", "layer"},
	)

	// UpstreamFailures counts failed collaborator calls by collaborator name.
	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "porg",
			Name:      "upstream_failures_total",
			Help:      "Failed external collaborator calls.",
		},
		[]string{"collaborator"},
	)

	// PlansBuilt counts liquidation plans and simulations by kind and outcome.
	PlansBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "porg",
			Name:      "plans_built_total",
			Help:      "Liquidation plans and simulations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// TransactionsClassified counts classified transactions by type.
	TransactionsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "porg",
			Name:      "transactions_classified_total",
			Help:      "Classified transactions by resulting type.",
		},
		[]string{"type"},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		CacheLookups,
		UpstreamFailures,
		PlansBuilt,
		TransactionsClassified,
	)
}
