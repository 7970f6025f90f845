package app

import (
	"time"

	"github.com/crmagente/ranking/internal/adapters/cache"
	"github.com/crmagente/ranking/pkg/logger"
)

// Option configures the service.
type Option func(*Service)

// WithCache replaces the default result cache.
func WithCache(c *cache.Cache[*Result]) Option {
	return func(s *Service) { s.cache = c }
}

// WithWorkers sets how many accumulators consume scanned batches.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout bounds one end-to-end ranking computation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}
