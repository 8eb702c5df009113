// Package cache stores fetched section fragments keyed by their fetch URL.
//
// The cache favours responsiveness over freshness: an entry is created on
// the first successful fetch of a URL and is then served for the rest of the
// engine's lifetime. The in-memory store has no capacity bound, no TTL and
// no invalidation hook. A Redis store is available for sharing fragments
// between headless renderers; its TTL defaults to zero (no expiry).
//
// # Basic Usage
//
//	manager := cache.NewManager(cache.NewMemoryStore())
//
//	key := cache.Key{Path: "/collections/all", SectionID: "template--1__product-grid", Query: "filter.v.option.color=Red"}
//	html, err := manager.Get(ctx, key.URL())
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch, then manager.Set(ctx, key.URL(), html)
//	}
//
// # Metrics
//
//   - facets_cache_hits_total{store} - Cache hits
//   - facets_cache_misses_total{store} - Cache misses
//   - facets_cache_entries{store} - Entries written
//   - facets_cache_size_bytes{store} - Bytes written
//   - facets_cache_errors_total{store, operation} - Store errors
package cache
