package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (memory, redis).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemap_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses by backend.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemap_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors by backend and operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemap_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"},
	)

	// CacheEntries tracks the current entry count of the in-memory backend.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitemap_cache_entries",
			Help: "Current number of entries in the in-memory response cache",
		},
	)
)
