// Package memo caches chunk group computations: in memory for the lifetime
// of a build, and on disk across builds.
package memo

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes results by key. Concurrent requests for the same key share
// one computation. Failed computations are not cached.
type Cache[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a Cache with the given capacity hint.
func NewCache[V any](capHint int) *Cache[V] {
	return &Cache[V]{values: make(map[string]V, capHint)}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	return v, ok
}

// Do returns the value for key, computing it with fn on a miss. cached
// reports whether the value came from the cache or a computation already in
// flight.
func (c *Cache[V]) Do(key string, fn func() (V, error)) (v V, cached bool, err error) {
	if v, ok := c.Get(key); ok {
		c.hits.Add(1)
		return v, true, nil
	}
	res, err, shared := c.flight.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	if shared {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return res.(V), shared, nil
}

// Len returns the number of cached values.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Stats returns hit and miss counts.
func (c *Cache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
