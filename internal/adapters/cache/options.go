package cache

import "time"

// Option applies a configuration option to the Cache.
type Option[V any] func(*Cache[V])

// WithTTL sets the entry time-to-live.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired entries are swept.
func WithSweepInterval[V any](interval time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if interval > 0 {
			c.sweepInterval = interval
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}
