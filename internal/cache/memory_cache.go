package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memoryCache implements Cache using an in-memory map. Used by unit tests and
// as a degraded fallback when no Redis instance is configured.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory Cache.
func NewMemoryCache() Cache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value stored under key, or ErrCacheMiss if the key is
// absent or its TTL has elapsed.
func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

// SetWithTTL stores value under key with the given expiry.
func (c *memoryCache) SetWithTTL(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

// DeleteByPrefix removes every key under the given prefix.
func (c *memoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
