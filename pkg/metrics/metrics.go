// Package metrics exposes the Prometheus registry used by the CMS client.
// All metrics are defined in their respective packages (client, cache,
// ratelimit) to maintain modularity and avoid circular dependencies; this
// package serves them and documents them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers with via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an HTTP handler serving every registered metric in the
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - cms_requests_total{operation, status} (Counter): Logical requests by operation and final status
//   - cms_request_duration_seconds{operation} (Histogram): Duration including retries
//   - cms_errors_total{class} (Counter): Failed attempts by class (client, server, rate_limit, network, timeout, quota, cancelled)
//
// Retry Metrics (pkg/client):
//   - cms_retries_total{error_class} (Counter): Retry attempts by error class
//   - cms_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - cms_retry_exhausted_total{error_class} (Counter): Requests that exhausted all retries
//
// Cache Metrics (pkg/cache):
//   - cms_cache_hits_total (Counter): Cache hits
//   - cms_cache_misses_total (Counter): Cache misses, expired entries included
//   - cms_cache_sets_total (Counter): Entries written
//   - cms_cache_evictions_total{reason} (Counter): Entries removed (expired, delete, prefix, clear)
//
// Quota Metrics (pkg/ratelimit):
//   - cms_rate_limit_remaining (Gauge): Requests left in the current quota window
//   - cms_rate_limit_blocks_total (Counter): Requests rejected because the reset is too far away
//   - cms_rate_limit_waits_total (Counter): Requests that waited for a window reset
//   - cms_rate_limit_throttles_total (Counter): Requests delayed because the quota is low
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(cms_cache_hits_total[5m])) /
//   (sum(rate(cms_cache_hits_total[5m])) + sum(rate(cms_cache_misses_total[5m])))
//
//   # Retry Rate per Logical Request
//   sum(rate(cms_retries_total[5m])) / sum(rate(cms_requests_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(cms_request_duration_seconds_bucket[5m]))
//
//   # Quota Running Low
//   cms_rate_limit_remaining < 10
