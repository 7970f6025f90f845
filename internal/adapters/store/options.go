package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crmagente/ranking/internal/domain/record"
	"github.com/crmagente/ranking/pkg/logger"
)

// Option applies a configuration option to the MongoScanner.
type Option func(*MongoScanner)

// WithPrefix sets the sale collection name prefix.
func WithPrefix(prefix string) Option {
	return func(s *MongoScanner) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithMaxParallel bounds concurrent per-collection queries.
func WithMaxParallel(n int) Option {
	return func(s *MongoScanner) {
		if n > 0 {
			s.maxParallel = n
		}
	}
}

// WithMaxFailedCollections sets how many per-collection failures a scan
// tolerates before failing as a whole.
func WithMaxFailedCollections(n int) Option {
	return func(s *MongoScanner) {
		if n >= 0 {
			s.maxFailed = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *MongoScanner) {
		if log != nil {
			s.log = log
		}
	}
}

// WithListBackend overrides collection enumeration. Used by tests.
func WithListBackend(fn func(ctx context.Context) ([]string, error)) Option {
	return func(s *MongoScanner) {
		if fn != nil {
			s.listFn = fn
		}
	}
}

// WithFetchBackend overrides per-collection fetching. Used by tests.
func WithFetchBackend(fn func(ctx context.Context, collection string, window record.Window) ([]bson.M, error)) Option {
	return func(s *MongoScanner) {
		if fn != nil {
			s.fetchFn = fn
		}
	}
}
