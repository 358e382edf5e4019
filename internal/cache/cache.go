// Package cache stores normalized translations keyed by actor, query and
// view. Entries expire by TTL only; there is no invalidation API, and
// concurrent writers of the same key simply overwrite each other.
package cache

import (
	"context"
	"fmt"

	"cmdbar/internal/config"
	"cmdbar/internal/logging"
)

// Store is a string-keyed TTL cache.
type Store interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key for the store's TTL.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open builds the backend cfg names.
func Open(cfg *config.Config) (Store, error) {
	ttl := cfg.GetCacheTTL()
	logging.Cache("Opening %s translation cache (ttl %v)", cfg.Cache.Backend, ttl)

	switch cfg.Cache.Backend {
	case config.CacheMemory, "":
		return NewMemory(ttl), nil
	case config.CacheSQLite:
		s, err := OpenSQLite(cfg.Cache.Path, ttl)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CacheRedis:
		r, err := OpenRedis(cfg.Cache.RedisURL, ttl)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}
