package embeddings

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// embedRequests counts embedding requests by kind (query, documents).
	embedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "embeddings",
			Name:      "requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"kind"},
	)

	// embedErrors counts failed embedding requests.
	embedErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Subsystem: "embeddings",
			Name:      "errors_total",
			Help:      "Total number of failed embedding requests",
		},
	)
)
