package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "content", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "content", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	IndexPropagationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "content", Name: "index_propagation_failures_total", Help: "Search index writes that failed after a successful primary commit, by content kind."},
		[]string{"kind"},
	)
	ListQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "content", Name: "list_queries_total", Help: "Listing requests by content kind and backing engine."},
		[]string{"kind", "target"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(IndexPropagationFailures)
	reg.MustRegister(ListQueries)
}
