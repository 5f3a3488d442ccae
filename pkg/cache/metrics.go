package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh envelopes served from the cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Total number of query cache hits",
		},
	)

	// CacheMisses tracks lookups of absent keys
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	// CacheExpired tracks stale envelopes found on read and lazily deleted
	CacheExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_expired_total",
			Help: "Total number of stale cache envelopes detected on read",
		},
	)

	// CacheSize tracks the size of values read from and written to the cache
	CacheSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "query_cache_value_size_bytes",
			Help:    "Size of cache values read or written in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
	)

	// CacheErrors tracks backend errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
