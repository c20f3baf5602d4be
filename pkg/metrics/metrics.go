// Package metrics provides the centralized Prometheus registry for the
// sitemap service. All metrics are defined in their respective packages
// (catalog, paginator, translate, cache, server) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their
// respective packages and exposed on /metrics.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Catalog Metrics (pkg/catalog):
//   - catalog_requests_total{type, status} (Counter): Listing requests by resource type and HTTP status
//   - catalog_request_duration_seconds{type} (Histogram): Listing request duration
//   - catalog_errors_total{class} (Counter): Listing errors by class (client, server, network)
//
// Retry Metrics (pkg/catalog):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pagination Metrics (pkg/paginator):
//   - paginator_upstream_calls_per_slice{type} (Histogram): Upstream pages walked per requested window
//
// Translation Metrics (pkg/translate):
//   - translation_lookups_total{outcome} (Counter): Per-entity lookups by outcome (hit, miss, error)
//   - translation_hydrate_duration_seconds{type} (Histogram): Duration of hydrating one slice
//
// Cache Metrics (pkg/cache):
//   - sitemap_cache_hits_total{backend} (Counter): Cache hits by backend
//   - sitemap_cache_misses_total{backend} (Counter): Cache misses by backend
//   - sitemap_cache_errors_total{backend, operation} (Counter): Cache operation errors
//   - sitemap_cache_entries (Gauge): Entries held by the in-memory store
//
// Serving Metrics (internal/server):
//   - sitemap_documents_total{doc, source} (Counter): Documents served by kind (urlset, index) and source (cache, render)
//   - sitemap_request_errors_total{reason} (Counter): Failed requests by reason
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(sitemap_cache_hits_total[5m])) /
//   (sum(rate(sitemap_cache_hits_total[5m])) + sum(rate(sitemap_cache_misses_total[5m])))
//
//   # Share of documents served from cache
//   sum(rate(sitemap_documents_total{source="cache"}[5m])) /
//   sum(rate(sitemap_documents_total[5m]))
//
//   # Upstream pages fetched per sitemap window (deep pages are expensive)
//   histogram_quantile(0.95, rate(paginator_upstream_calls_per_slice_bucket[5m]))
//
//   # Translation degradation
//   rate(translation_lookups_total{outcome="error"}[5m])
//
//   # P95 Listing Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
