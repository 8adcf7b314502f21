// Package cache provides the key/value cache and distributed lock used in
// front of availability reads and booking writes.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores opaque values with a TTL. Every key also has a generation
// counter that Invalidate bumps. A reader that samples the generation
// before loading from the source of truth writes back with
// SetIfGeneration, so a load that raced an invalidation is never stored.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	Generation(ctx context.Context, key string) (int64, error)
	Invalidate(ctx context.Context, key string) error
	SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen int64) (bool, error)
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCache) Delete(context.Context, string) error                     { return nil }
func (NoopCache) Generation(context.Context, string) (int64, error)        { return 0, nil }
func (NoopCache) Invalidate(context.Context, string) error                 { return nil }

func (NoopCache) SetIfGeneration(context.Context, string, []byte, time.Duration, int64) (bool, error) {
	return false, nil
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache for single-node installs and tests.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	generations map[string]int64
	now         func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:     make(map[string]memoryEntry),
		generations: make(map[string]int64),
		now:         time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl)
	return nil
}

func (c *MemoryCache) store(key string, value []byte, ttl time.Duration) {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
}

func (c *MemoryCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key], nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.generations[key]++
	return nil
}

func (c *MemoryCache) SetIfGeneration(_ context.Context, key string, value []byte, ttl time.Duration, gen int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != gen {
		return false, nil
	}
	c.store(key, value, ttl)
	return true, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
