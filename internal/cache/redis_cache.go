package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of a Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Cache backed by the given Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the value stored under key, mapping redis.Nil to ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	return value, nil
}

// SetWithTTL stores value under key with the given expiry.
func (c *RedisCache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every key under the given prefix. SCAN is used
// instead of KEYS to avoid blocking the server on large keyspaces.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys with prefix %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys with prefix %s: %w", prefix, err)
	}
	return nil
}
