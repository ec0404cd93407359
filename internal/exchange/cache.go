package exchange

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rate      float64
	expiresAt time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return 0, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return 0, false, nil
	}
	return entry.rate, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, rate float64, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{rate: rate, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
