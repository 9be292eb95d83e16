// Package cache provides the expiring key-value cache used by the catalog
// read path. Entries are derived data: safe to drop or rebuild at any time.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a TTL-based key-value cache abstraction that can be backed by
// Redis, memory, or any other KV store.
type Cache interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL stores value under key with the given expiry.
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error

	// DeleteByPrefix removes every key under the given prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
