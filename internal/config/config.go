// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and env providers on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MongoURI is the document store connection string.
	MongoURI string `koanf:"mongo_uri"`

	// MongoDatabase names the database holding the sale collections.
	MongoDatabase string `koanf:"mongo_database"`

	// CollectionPrefix selects the base sale collection and its historically
	// sharded variants (prefix, prefix_xxxx, ...).
	CollectionPrefix string `koanf:"collection_prefix"`

	// UsersCollection names the identity registry collection.
	UsersCollection string `koanf:"users_collection"`

	// MaxParallelScans bounds concurrent per-collection queries.
	MaxParallelScans int `koanf:"max_parallel_scans"`

	// MaxFailedCollections tolerated before a scan fails as systemic.
	MaxFailedCollections int `koanf:"max_failed_collections"`

	// AggregationWorkers sets the number of accumulation workers.
	AggregationWorkers int `koanf:"aggregation_workers"`

	// RequestTimeoutMS is the overall deadline for one ranking request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// CacheTTLSeconds is the ranking cache time-to-live.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// MaxLimit caps the limit query parameter. Zero means uncapped.
	MaxLimit int `koanf:"max_limit"`
}

// New creates a Config holding the built-in defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "crmagente",
		CollectionPrefix:     "costumers",
		UsersCollection:      "users",
		MaxParallelScans:     4,
		MaxFailedCollections: 1,
		AggregationWorkers:   runtime.NumCPU(),
		RequestTimeoutMS:     15_000,
		CacheTTLSeconds:      60,
		MaxLimit:             0,
	}
}
