package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	// CacheMisses tracks cache misses, including reads of expired entries
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CacheSets tracks stored entries
	CacheSets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_cache_sets_total",
			Help: "Total number of entries written to the response cache",
		},
	)

	// CacheEvictions tracks removed entries by reason
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_cache_evictions_total",
			Help: "Total number of entries removed from the response cache",
		},
		[]string{"reason"}, // "expired", "delete", "prefix", "clear"
	)
)
