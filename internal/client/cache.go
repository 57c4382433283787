package client

import (
	"strings"
	"sync"
	"time"
)

// Cache is a read-through response cache keyed by request path. Entries are
// served only within the staleness window. Invalidation removes a whole key
// family (every key under a resource path) or the entire cache.
type Cache struct {
	mu         sync.Mutex
	staleAfter time.Duration
	entries    map[string]cacheEntry
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// NewCache builds a cache whose entries go stale after the given duration.
func NewCache(staleAfter time.Duration) *Cache {
	return &Cache{
		staleAfter: staleAfter,
		entries:    make(map[string]cacheEntry),
	}
}

// Get returns the cached value for key if it is still fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) >= c.staleAfter {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores a value under key, resetting its staleness clock.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
}

// InvalidateFamily removes every entry whose key starts with prefix. Entity
// and list keys of one resource share its path prefix, so a single-resource
// write drops exactly that family.
func (c *Cache) InvalidateFamily(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll empties the cache. Used after writes with cross-resource
// effects, such as deleting a user who owns items.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
