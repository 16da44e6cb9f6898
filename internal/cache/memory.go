package cache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process on go-cache and counts hits and
// misses per key namespace
type MemoryCache struct {
	items      *gocache.Cache
	defaultTTL time.Duration

	mu    sync.Mutex
	stats map[string]*Stats
}

// Stats counts lookups for one namespace
type Stats struct {
	Hits   int
	Misses int
}

// NewMemoryCache creates a memory cache. A zero ttl on Set uses defaultTTL;
// a non-positive defaultTTL keeps entries until deleted.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryCache{
		items:      gocache.New(defaultTTL, cleanupInterval),
		defaultTTL: defaultTTL,
		stats:      make(map[string]*Stats),
	}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	var data []byte
	if v, ok := c.items.Get(key); ok {
		data, _ = v.([]byte)
	}
	c.record(key, data != nil)
	return data, data != nil
}

// Set stores a private copy of value. A negative ttl stores nothing.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	switch {
	case ttl < 0:
		c.items.Delete(key)
		return nil
	case ttl == 0:
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, append([]byte{}, value...), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	c.mu.Lock()
	c.stats = make(map[string]*Stats)
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached items, including expired ones not yet cleaned up
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

// Stats returns a snapshot of lookup counts keyed by namespace
func (c *MemoryCache) Stats() map[string]Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Stats, len(c.stats))
	for ns, s := range c.stats {
		out[ns] = *s
	}
	return out
}

func (c *MemoryCache) record(key string, hit bool) {
	ns := namespaceOf(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[ns]
	if !ok {
		s = &Stats{}
		c.stats[ns] = s
	}
	if hit {
		s.Hits++
	} else {
		s.Misses++
	}
}

// namespaceOf extracts <ns> from "perspecta:v1:<ns>:<hash>"
func namespaceOf(key string) string {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) == 4 && parts[0] == "perspecta" {
		return parts[2]
	}
	return "other"
}
