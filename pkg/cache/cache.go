package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is an in-memory key/value store with per-entry expiry.
//
// Expired entries are never returned. They are removed lazily when read,
// or eagerly through Prune. All methods are safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	// sf collapses concurrent loads of the same missing key in GetOrLoad.
	sf singleflight.Group

	now         func() time.Time
	loadTimeout time.Duration
}

// DefaultLoadTimeout bounds a shared load started by GetOrLoad.
const DefaultLoadTimeout = 30 * time.Second

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLoadTimeout sets how long a shared GetOrLoad load may run.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:     make(map[string]*Entry),
		now:         time.Now,
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultCache *Cache
	defaultOnce  sync.Once
)

// Default returns the process-wide cache.
// Libraries should accept a *Cache instead; this is meant for main packages.
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache = New()
	})
	return defaultCache
}

// Get returns the value stored under key if it has not expired.
// An expired entry is evicted and reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		CacheMisses.Inc()
		return nil, false
	}

	if entry.IsExpired(now) {
		c.mu.Lock()
		// Only evict the entry we looked at; a concurrent Set may have replaced it.
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
			CacheEvictions.WithLabelValues("expired").Inc()
		}
		c.mu.Unlock()
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.Inc()
	return entry.Value, true
}

// Set stores value under key for ttl, replacing any existing entry.
// A non-positive ttl stores an entry that is already expired.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	entry := newEntry(value, c.now(), ttl)

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	CacheSets.Inc()
}

// Delete removes the entry stored under key and reports whether it existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if ok {
		CacheEvictions.WithLabelValues("delete").Inc()
	}
	return ok
}

// DeletePrefix removes every entry whose key starts with prefix
// and returns how many were removed.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	CacheEvictions.WithLabelValues("prefix").Add(float64(removed))
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()

	CacheEvictions.WithLabelValues("clear").Add(float64(removed))
}

// Prune removes all expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if entry.IsExpired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	CacheEvictions.WithLabelValues("expired").Add(float64(removed))
	return removed
}

// Size returns the number of stored entries, including expired entries
// that have not been removed yet.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entry returns a copy of the raw entry stored under key, expired or not.
// It does not evict and does not count as a hit or miss.
func (c *Cache) Entry(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// LoadFunc produces a value for a missing key.
type LoadFunc func(ctx context.Context) (any, error)

// GetOrLoad returns the cached value for key, or calls load and caches its
// result for ttl. Concurrent callers missing the same key share one load.
//
// The load keeps the values of the starting caller's ctx but not its
// cancellation, so one caller giving up does not fail the others; it is
// bounded by the cache's load timeout instead. Each caller stops waiting
// when its own ctx is done and gets ctx.Err().
// Errors from load are returned and nothing is cached.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (any, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}
