package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/ports"
)

type cacheEntry struct {
	result  string
	expires time.Time
}

// Cache implements ports.ResultCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the expiration for entries. Zero keeps entries forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a new in-memory cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached result. Expired entries are removed lazily.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return "", ports.ErrCacheMiss
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return "", ports.ErrCacheMiss
	}
	return entry.result, nil
}

// Set stores a result.
func (c *Cache) Set(ctx context.Context, key, result string) error {
	entry := cacheEntry{result: result}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
