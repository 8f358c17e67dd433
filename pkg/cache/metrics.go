package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier (memory, disk)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of product cache hits",
		},
		[]string{"tier"}, // "memory", "disk"
	)

	// CacheMisses tracks reads that fell through both tiers to the source
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of product cache misses",
		},
	)

	// SourceFetches tracks fetches against the spreadsheet source
	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_source_fetches_total",
			Help: "Total number of spreadsheet fetches by result",
		},
		[]string{"result"}, // "success", "error"
	)

	// CacheInvalidations tracks authorized cache invalidations
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_invalidations_total",
			Help: "Total number of authorized cache invalidations",
		},
	)

	// RefreshFailures tracks failed background refreshes
	RefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_refresh_failures_total",
			Help: "Total number of failed background cache refreshes",
		},
	)

	// CachedProducts tracks the size of the current cache entry
	CachedProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_cached_products",
			Help: "Number of products in the current cache entry",
		},
	)

	// CacheErrors tracks cache tier operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "load", "store", "remove"
	)
)
