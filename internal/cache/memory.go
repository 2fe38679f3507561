package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means never
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local cache backend. Expired entries are
// dropped lazily on read and in bulk by Sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
	logger  *zap.Logger
}

func NewMemoryCache(logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*entry),
		now:     time.Now,
		logger:  logger,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if e.expired(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock, Set may have raced us.
		if cur, ok := c.entries[key]; ok && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := &entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}

// Sweep removes every expired entry and returns how many were dropped.
// Permanent entries are never touched.
func (c *MemoryCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Swept expired cache entries",
			zap.Int("removed", removed),
			zap.Int("remaining", len(c.entries)),
		)
	}

	return removed
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// setClock overrides the time source for tests.
func (c *MemoryCache) setClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
