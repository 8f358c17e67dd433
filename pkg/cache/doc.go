// Package cache implements the two-tier product cache at the core of the
// catalog service.
//
// The manager hides the spreadsheet source's latency and quota behind two
// tiers with different tradeoffs:
//
//   - memory: an atomic in-process slot, authoritative when populated
//   - disk: one JSON file, survives process restarts
//
// Reads fall through memory, then disk, then a synchronous source fetch
// that populates both tiers (lazy fetch). There is no periodic refresh;
// the cache is pull-based. Invalidation is the only push: it clears both
// tiers and schedules a single coalesced background refresh.
//
// # Basic Usage
//
//	manager, err := cache.NewManager(cache.Config{
//		Source:          sheetsClient,
//		DiskPath:        "products_cache.json",
//		InvalidateToken: token,
//	})
//	if err != nil {
//		return err
//	}
//
//	products, err := manager.GetProducts(ctx)
//	product, err := manager.GetProduct(ctx, 0)
//
//	// Token-gated invalidation; returns before the background refresh
//	// completes.
//	if err := manager.Invalidate(token); err != nil {
//		// cache.ErrUnauthorized on token mismatch
//	}
//
// # Consistency
//
// Entries are immutable snapshots replaced wholesale, each carrying a
// generation ID. After a successful Invalidate no read ever observes the
// pre-invalidation generation. No ordering is guaranteed between the
// invalidation returning and the refresh finishing: a client polling
// immediately may pay a synchronous fetch instead.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - catalog_cache_hits_total{tier} - hits by tier (memory, disk)
//   - catalog_cache_misses_total - full misses reaching the source
//   - catalog_source_fetches_total{result} - source fetches by result
//   - catalog_cache_invalidations_total - authorized invalidations
//   - catalog_refresh_failures_total - failed background refreshes
//   - catalog_cached_products - products in the current entry
//   - catalog_cache_errors_total{operation} - tier operation errors
//
// Example queries:
//
//	# Cache hit rate
//	sum(rate(catalog_cache_hits_total[5m])) /
//	(sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//	# Source error rate
//	rate(catalog_source_fetches_total{result="error"}[5m])
package cache
