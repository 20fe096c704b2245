// ABOUTME: In-process query cache with stale-time expiry and prefix invalidation
// ABOUTME: Keeps list responses fresh between mutations within one process

package querycache

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data      any
	expiresAt time.Time
}

// Cache stores query results until they go stale or are invalidated.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	mu    sync.Mutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache whose entries go stale after ttl
func New(ttl time.Duration) *Cache {
	return &Cache{
		store: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return nil, false
	}

	if !c.now().Before(e.expiresAt) {
		delete(c.store, key)
		slog.Debug("Cache expired", "key", key)
		return nil, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = entry{
		data:      value,
		expiresAt: c.now().Add(c.ttl),
	}
	slog.Debug("Cache set", "key", key, "ttl", c.ttl)
}

// Invalidate drops every entry whose key is prefix or starts with prefix + "/"
func (c *Cache) Invalidate(prefix string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.store {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(c.store, key)
		}
	}
	slog.Debug("Cache invalidated", "prefix", prefix)
}

// Len returns the number of entries, stale ones included
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}
