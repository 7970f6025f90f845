// Package cache memoizes ranking computations keyed by the full query
// parameter set. It is the only cross-request mutable state in the
// service, so its contract is explicit: TTL expiry, per-key in-flight
// deduplication, and a debug bypass that recomputes and overwrites.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crmagente/ranking/pkg/metrics"
)

const (
	defaultTTL           = time.Minute
	defaultSweepInterval = 5 * time.Minute
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL memoization cache. Values are shared between callers
// and must be treated as read-only.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	// group serializes computations per key: at most one in-flight
	// computation for a given parameter set, shared by all waiters.
	group singleflight.Group

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its expiry sweeper.
func New[V any](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		items:         make(map[string]item[V]),
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.sweep()
	return c
}

// GetOrCompute returns the cached value for key or runs compute under the
// per-key flight. fromCache reports whether the value was served from a
// stored entry.
//
// With bypass the read is skipped and compute always runs; the fresh
// result still overwrites the stored entry, so a debug request both
// reflects current source data and leaves the cache consistent for
// later non-debug reads.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error), bypass bool) (value V, fromCache bool, err error) {
	if bypass {
		metrics.RecordCacheBypass()
	} else if v, ok := c.get(key); ok {
		metrics.RecordCacheHit()
		return v, true, nil
	}

	type flightResult struct {
		value  V
		cached bool
	}
	// Bypass computations fly under a separate key: a debug caller must
	// never be handed another flight's store re-check.
	flightKey := key
	if bypass {
		flightKey = key + "\x00bypass"
	}
	res, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		// Losers of the flight race re-check the store so a value
		// written moments ago is not recomputed.
		if !bypass {
			if v, ok := c.get(key); ok {
				return flightResult{value: v, cached: true}, nil
			}
			metrics.RecordCacheMiss()
		}
		metrics.IncInflightComputations()
		defer metrics.DecInflightComputations()

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return flightResult{value: v}, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	fr := res.(flightResult)
	return fr.value, fr.cached, nil
}

// Invalidate drops the entry for key, if any.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the expiry sweeper.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(it.expiresAt) {
		// Lazy eviction; the sweeper handles keys nobody reads.
		c.Invalidate(key)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[V]) set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item[V]{value: v, expiresAt: c.now().Add(c.ttl)}
}

func (c *Cache[V]) sweep() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for key, it := range c.items {
				if now.After(it.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
