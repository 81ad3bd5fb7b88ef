// Package cache provides a small per-key TTL cache used to bound upstream
// call volume for candle series.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	expiresAt time.Time
	value     V
}

// TTL is a concurrency-safe cache whose entries expire after a fixed
// time-to-live. Expired entries are evicted lazily by the Get that discovers
// them; there is no background sweep.
type TTL[V any] struct {
	ttl   time.Duration
	mu    sync.Mutex
	store map[string]entry[V]
	now   func() time.Time
}

// NewTTL creates a cache whose entries live for ttl after each Set.
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:   ttl,
		store: make(map[string]entry[V]),
		now:   time.Now,
	}
}

// Get returns the cached value for key. A value is absent if it was never set
// or its TTL has elapsed; an expired entry is removed on discovery.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.store, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL, replacing any previous entry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry[V]{expiresAt: c.now().Add(c.ttl), value: value}
}
