package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
)

const redisKeyPrefix = "agent:page:"

// RedisCache implements the PageCachePort interface on Redis with JSON values
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new RedisCache from the cache configuration
func NewRedisCache(cfg *config.CacheConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisCacheWithClient(client, cfg.TTL)
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached source for url
func (c *RedisCache) Get(ctx context.Context, url string) (domain.SourceResult, bool, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+url).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SourceResult{}, false, nil
	}
	if err != nil {
		return domain.SourceResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	var result domain.SourceResult
	if err := json.Unmarshal(val, &result); err != nil {
		return domain.SourceResult{}, false, fmt.Errorf("decode cached page: %w", err)
	}
	return result, true, nil
}

// Set stores a successful source; failed ones are ignored
func (c *RedisCache) Set(ctx context.Context, result domain.SourceResult) error {
	if !result.OK() {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, redisKeyPrefix+result.URL, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ ports.PageCachePort = (*RedisCache)(nil)
