package cache

import (
	"context"
	"fmt"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/ports"
)

// New builds the page cache selected by cfg.Backend. "none" and "" return nil,
// which the page reader treats as no caching.
func New(ctx context.Context, cfg *config.CacheConfig) (ports.PageCachePort, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(cfg.TTL), nil
	case "redis":
		c := NewRedisCache(cfg)
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
