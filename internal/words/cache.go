package words

import (
	"sync"
	"time"

	"github.com/scythe504/wordbomb-backend/internal"
)

const defaultCacheEntries = 4096

type cacheEntry struct {
	def     internal.Definition
	found   bool
	expires time.Time
}

// Cache remembers definition lookups, including misses, for a fixed TTL.
// It is shared by every room.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: defaultCacheEntries,
		now:        time.Now,
	}
}

// Get returns (definition, found, ok); ok is false on a miss or an expired entry.
func (c *Cache) Get(word string) (internal.Definition, bool, bool) {
	c.mu.RLock()
	e, ok := c.entries[word]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return internal.Definition{}, false, false
	}
	return e.def, e.found, true
}

func (c *Cache) Put(word string, def internal.Definition, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[word] = cacheEntry{def: def, found: found, expires: c.now().Add(c.ttl)}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops expired entries, and half the cache when nothing has expired.
func (c *Cache) evictLocked() {
	now := c.now()
	for w, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, w)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	drop := len(c.entries) / 2
	for w := range c.entries {
		if drop == 0 {
			break
		}
		delete(c.entries, w)
		drop--
	}
}
