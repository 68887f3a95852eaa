// Package cache provides the response cache shared by all resource services.
//
// The cache is a plain in-memory map with per-entry expiry:
//
// - Expired entries are never returned (lazy eviction on read)
// - A non-positive TTL stores an already-expired entry (cache disabled)
// - Targeted invalidation by operation prefix
// - Read-through loading with singleflight deduplication
// - Deterministic, order-independent cache key generation
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	c := cache.New()
//
//	key := cache.BuildKey("content.list", map[string]any{
//		"status": "published",
//		"limit":  20,
//		"offset": 40,
//	})
//
//	c.Set(key, page, 5*time.Minute)
//
//	if v, ok := c.Get(key); ok {
//		page := v.(*ContentPage) // treat as read-only, it is shared
//	}
//
// # Read-Through Loading
//
//	v, err := c.GetOrLoad(ctx, key, 5*time.Minute, func(ctx context.Context) (any, error) {
//		return fetchContent(ctx)
//	})
//
// # Invalidation
//
//	// After a mutation with a well known blast radius
//	c.DeletePrefix(cache.Prefix("content."))
//
//	// After a sync job that may have touched anything
//	c.Clear()
//
// # Metrics
//
//   - cms_cache_hits_total - Cache hits
//   - cms_cache_misses_total - Cache misses (absent or expired)
//   - cms_cache_sets_total - Entries written
//   - cms_cache_evictions_total{reason} - Entries removed
//
// # Sharing
//
// Construct one Cache and pass it to every client that should share results.
// Default returns a process-wide instance for main packages.
package cache
