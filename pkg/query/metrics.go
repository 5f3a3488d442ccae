package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for query handling.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "query_requests_total",
		Help: "Total product queries by lookup policy and outcome",
	}, []string{"policy", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "query_request_duration_seconds",
		Help:    "Product query duration in seconds by lookup policy",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"policy"})

	writeBackFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "query_writeback_failures_total",
		Help: "Total number of failed cache write-backs after a record-store hit",
	})

	coalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "query_coalesced_misses_total",
		Help: "Total number of cache misses served by another in-flight lookup",
	})
)
