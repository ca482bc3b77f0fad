package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
)

type cacheEntry struct {
	result    domain.SourceResult
	expiresAt time.Time
}

// MemoryCache implements the PageCachePort interface in process memory
type MemoryCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
	mutex   sync.RWMutex
}

// NewMemoryCache creates a new MemoryCache. A zero ttl keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached source for url
func (c *MemoryCache) Get(_ context.Context, url string) (domain.SourceResult, bool, error) {
	c.mutex.RLock()
	entry, ok := c.entries[url]
	c.mutex.RUnlock()

	if !ok {
		return domain.SourceResult{}, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, url)
		c.mutex.Unlock()
		return domain.SourceResult{}, false, nil
	}
	return entry.result, true, nil
}

// Set stores a successful source; failed ones are ignored
func (c *MemoryCache) Set(_ context.Context, result domain.SourceResult) error {
	if !result.OK() {
		return nil
	}

	entry := cacheEntry{result: result}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mutex.Lock()
	c.entries[result.URL] = entry
	c.mutex.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

var _ ports.PageCachePort = (*MemoryCache)(nil)
