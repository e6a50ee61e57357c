package geo

import (
	"sync"
	"time"
)

// Cache holds geocoder answers with a TTL. Misses are cached too, so an
// unknown address is not looked up again until it expires.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

type cacheEntry struct {
	coords   Coordinates
	found    bool
	cachedAt time.Time
}

// NewCache creates a cache; a non-positive ttl selects seven days
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Get returns a cached answer. ok is false when absent or expired.
func (c *Cache) Get(key string) (coords Coordinates, found bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return Coordinates{}, false, false
	}
	if c.nowFunc().Sub(e.cachedAt) > c.ttl {
		delete(c.entries, key)
		return Coordinates{}, false, false
	}
	return e.coords, e.found, true
}

// Set stores an answer
func (c *Cache) Set(key string, coords Coordinates, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{coords: coords, found: found, cachedAt: c.nowFunc()}
}

// CleanExpired removes expired entries and returns how many were dropped
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.nowFunc()
	for key, e := range c.entries {
		if now.Sub(e.cachedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
