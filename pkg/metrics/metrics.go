// Package metrics exposes the Prometheus registry shared by the query cache.
// Metrics are defined in their own packages (cache, query, retry) and
// registered via promauto; this package serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers its metrics with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics exposition handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - query_cache_hits_total (Counter): Fresh envelopes served from the cache
//   - query_cache_misses_total (Counter): Keys absent from the cache
//   - query_cache_expired_total (Counter): Stale envelopes found and deleted
//   - query_cache_value_size_bytes (Histogram): Encoded envelope size on read and write
//   - query_cache_errors_total{operation} (Counter): Cache backend failures by operation
//
// Query Metrics (pkg/query):
//   - query_requests_total{policy, outcome} (Counter): Handled queries by lookup policy
//     and outcome (hit, miss, invalid_query, data_not_found, internal)
//   - query_request_duration_seconds{policy} (Histogram): Handle latency by policy
//   - query_writeback_failures_total (Counter): Failed cache write-backs
//   - query_coalesced_misses_total (Counter): Misses that shared another caller's lookup
//
// Retry Metrics (pkg/retry):
//   - query_retries_total{operation} (Counter): Retry attempts by backend operation
//   - query_retry_backoff_seconds{operation} (Histogram): Backoff duration by operation
//   - query_retry_exhausted_total{operation} (Counter): Operations that exhausted their attempts
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(query_cache_hits_total[5m])) /
//   (sum(rate(query_cache_hits_total[5m])) + sum(rate(query_cache_misses_total[5m])))
//
//   # Internal Error Rate
//   sum(rate(query_requests_total{outcome="internal"}[5m]))
//
//   # P95 Latency of Name Lookups
//   histogram_quantile(0.95, rate(query_request_duration_seconds_bucket{policy="by_name"}[5m]))
