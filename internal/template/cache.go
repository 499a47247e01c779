package template

import (
	"sync"
	"time"
)

// Cache holds resolved template bodies for a bounded time so repeated letter
// runs skip the database and object-store round trips.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    string
	savedAt time.Time
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && time.Since(e.savedAt) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return e.body, true
}

func (c *Cache) Put(key, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{body: body, savedAt: time.Now()}
}

// Drop invalidates one entry, used after an operator saves a new override.
func (c *Cache) Drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
