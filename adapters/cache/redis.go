// Package cache provides the Redis-backed cache adapter.
// All operations are best-effort: a cache failure is logged and the
// caller proceeds as if the entry were missing.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"finopsguard/internal/config"
	"finopsguard/internal/logging"
)

// Cache is the process-wide cache contract.
type Cache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value with a TTL; best-effort
	Set(ctx context.Context, key, value string, ttl time.Duration)

	// Delete removes a key; best-effort
	Delete(ctx context.Context, key string)

	// Healthy reports whether the backing store answers pings
	Healthy(ctx context.Context) bool

	// Close releases the connection
	Close() error
}

// RedisCache is the production cache backed by Redis.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedis connects a Redis cache from configuration.
func NewRedis(cfg config.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})
	return &RedisCache{
		client: client,
		log:    logging.Named("cache.redis"),
	}
}

// Get returns the cached value and whether it was present.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return val, true
}

// Set stores a value with a TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Debug("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Healthy reports whether Redis answers pings.
func (c *RedisCache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Close releases the connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Disabled is the no-op cache used when Redis is not configured.
type Disabled struct{}

// NewDisabled returns the no-op cache.
func NewDisabled() *Disabled { return &Disabled{} }

// Get always misses.
func (Disabled) Get(ctx context.Context, key string) (string, bool) { return "", false }

// Set is a no-op.
func (Disabled) Set(ctx context.Context, key, value string, ttl time.Duration) {}

// Delete is a no-op.
func (Disabled) Delete(ctx context.Context, key string) {}

// Healthy always reports false so health endpoints show the cache as absent.
func (Disabled) Healthy(ctx context.Context) bool { return false }

// Close is a no-op.
func (Disabled) Close() error { return nil }

// New selects the cache implementation from configuration.
func New(cfg config.RedisConfig) Cache {
	if !cfg.Enabled {
		return NewDisabled()
	}
	return NewRedis(cfg)
}
