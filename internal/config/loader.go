package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if RANKING_CONFIG is set
//  3. env (prefix RANKING_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RANKING_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RANKING_ADDR, RANKING_MONGO_URI, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("RANKING_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "ranking_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MongoURI == "":
		return fmt.Errorf("%w: mongo_uri must not be empty", ErrInvalidConfig)
	case c.MongoDatabase == "":
		return fmt.Errorf("%w: mongo_database must not be empty", ErrInvalidConfig)
	case c.CollectionPrefix == "":
		return fmt.Errorf("%w: collection_prefix must not be empty", ErrInvalidConfig)
	case c.MaxParallelScans < 1:
		return fmt.Errorf("%w: max_parallel_scans must be positive", ErrInvalidConfig)
	case c.MaxFailedCollections < 0:
		return fmt.Errorf("%w: max_failed_collections must not be negative", ErrInvalidConfig)
	case c.AggregationWorkers < 1:
		return fmt.Errorf("%w: aggregation_workers must be positive", ErrInvalidConfig)
	case c.RequestTimeoutMS < 1:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds < 1:
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.MaxLimit < 0:
		return fmt.Errorf("%w: max_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
