// Package statuscache memoizes assembled flight statuses for a short TTL.
//
// Live position data goes stale in seconds, so the TTL is tuned to absorb
// bursty polling from a UI refreshing every few seconds without serving old
// positions. Expired entries are purged lazily on the next lookup for their
// key rather than swept in the background.
package statuscache

import (
	"sync"
	"time"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

type entry struct {
	status    *flight.Status
	expiresAt time.Time
}

// Cache is a TTL map of flight statuses keyed by normalized identifier.
// Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// New creates a cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a cache with an injected clock for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached status for key. An entry at or past its expiry is
// removed and reported as a miss.
func (c *Cache) Get(key string) (*flight.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.status, true
}

// Set stores status under key, fully replacing any previous entry.
func (c *Cache) Set(key string, status *flight.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		status:    status,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len reports the number of entries, expired or not. Used in tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
