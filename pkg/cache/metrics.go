package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fragment cache hits by store (memory, redis).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facets_cache_hits_total",
			Help: "Total number of fragment cache hits",
		},
		[]string{"store"},
	)

	// CacheMisses tracks fragment cache misses by store.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facets_cache_misses_total",
			Help: "Total number of fragment cache misses",
		},
		[]string{"store"},
	)

	// CacheEntries counts entries written. Concurrent misses for one URL
	// overwrite the same entry and are each counted.
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facets_cache_entries",
			Help: "Number of fragment cache entries written",
		},
		[]string{"store"},
	)

	// CacheSize tracks bytes written by store.
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facets_cache_size_bytes",
			Help: "Bytes of fragment HTML written to the cache",
		},
		[]string{"store"},
	)

	// CacheErrors tracks store operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facets_cache_errors_total",
			Help: "Total number of fragment cache operation errors",
		},
		[]string{"store", "operation"}, // "get", "set"
	)
)
