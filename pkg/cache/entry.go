package cache

import (
	"time"
)

// Entry represents a single cached value.
type Entry struct {
	// Value is the cached value. It is shared between all readers.
	Value any

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time
}

// newEntry creates an entry stored at now that lives for ttl.
// A non-positive ttl yields an entry that is already expired.
func newEntry(value any, now time.Time, ttl time.Duration) *Entry {
	if ttl < 0 {
		ttl = 0
	}
	return &Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the entry has expired at the given time.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
