// Package cache provides TTL key-value stores and the review cache and
// session tokens built on them.
package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwriter/internal/config"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = eris.New("cache: key not found")

// Store is a TTL key-value store safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Take atomically reads and deletes key.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(time.Duration(cfg.SweepIntervalSecs) * time.Second), nil
	case "redis":
		return NewRedisStore(ctx, cfg)
	default:
		return nil, eris.Errorf("cache: unsupported driver %q", cfg.Driver)
	}
}
