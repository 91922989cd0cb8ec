// Package metrics provides a centralized Prometheus metrics registry
// for the BOJ statistics client. Metrics are defined in their owning
// packages (pkg/transport, pkg/cache) to keep each family next to the
// code that observes it; this package documents the resulting catalog
// for anyone wiring a dashboard against it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// Every metric below is registered via promauto against this registry.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Transport Metrics (pkg/transport):
//   - bojstat_requests_total{endpoint, outcome} (Counter): completed requests by endpoint and outcome (status code, "unparseable", "transport_error")
//   - bojstat_request_duration_seconds{endpoint} (Histogram): end-to-end request duration by endpoint
//   - bojstat_errors_total{class} (Counter): errors by class (body status code or transport error kind)
//   - bojstat_retries_total{error_class} (Counter): retry attempts by error class
//   - bojstat_retry_backoff_seconds{error_class} (Histogram): backoff wait duration by error class
//   - bojstat_retry_exhausted_total{error_class} (Counter): requests that exhausted their retry budget
//
// Cache Metrics (pkg/cache):
//   - bojstat_cache_hits_total (Counter): local cache hits
//   - bojstat_cache_misses_total (Counter): local cache misses
//   - bojstat_cache_errors_total{operation} (Counter): local cache operation errors (read, write, decode)
//
// Example Prometheus Queries:
//
//   # Cache hit rate
//   sum(rate(bojstat_cache_hits_total[5m])) /
//   (sum(rate(bojstat_cache_hits_total[5m])) + sum(rate(bojstat_cache_misses_total[5m])))
//
//   # Request error rate by class
//   sum(rate(bojstat_errors_total[5m])) by (class)
//
//   # P95 request latency by endpoint
//   histogram_quantile(0.95, sum(rate(bojstat_request_duration_seconds_bucket[5m])) by (endpoint, le))
//
//   # Retry exhaustion rate
//   sum(rate(bojstat_retry_exhausted_total[5m])) by (error_class)
