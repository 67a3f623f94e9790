package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// searchRequests counts pipeline searches by classified intent.
	searchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of hybrid search requests",
		},
		[]string{"intent"},
	)

	// searchDuration tracks end-to-end pipeline latency.
	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Duration of hybrid search requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// searchErrors counts failed searches by stage (vector, keyword).
	searchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "search",
			Name:      "errors_total",
			Help:      "Total number of failed search sub-operations",
		},
		[]string{"stage"},
	)

	// cacheHits counts vector cache hits.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "vector_cache",
			Name:      "hits_total",
			Help:      "Total number of vector result cache hits",
		},
	)

	// cacheMisses counts vector cache misses.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "vector_cache",
			Name:      "misses_total",
			Help:      "Total number of vector result cache misses",
		},
	)

	// cacheEvictions counts capacity evictions.
	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "vector_cache",
			Name:      "evictions_total",
			Help:      "Total number of vector result cache evictions",
		},
	)
)
