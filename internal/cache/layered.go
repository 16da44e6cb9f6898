package cache

import (
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LayeredCache fronts a slower shared store (disk or Redis) with the
// in-process memory cache. Reads that hit the backing store are copied
// into memory with the memory layer's own TTL.
type LayeredCache struct {
	memory  *MemoryCache
	backing Cache
}

// NewLayeredCache builds a memory layer over a disk cache rooted at diskDir,
// dropping entries that expired while the process was down
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) (*LayeredCache, error) {
	disk := NewDiskCache(diskDir, diskTTL)
	if _, err := disk.Sweep(); err != nil {
		return nil, fmt.Errorf("sweep cache dir: %w", err)
	}
	return NewTieredCache(memoryTTL, disk), nil
}

// NewTieredCache builds a memory layer over an arbitrary backing cache
func NewTieredCache(memoryTTL time.Duration, backing Cache) *LayeredCache {
	return &LayeredCache{
		memory:  NewMemoryCache(memoryTTL, 10*time.Minute),
		backing: backing,
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, ok := c.memory.Get(key); ok {
		return val, true
	}
	val, ok := c.backing.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(key, val, 0)
	return val, true
}

// Set writes through to the backing store; a backing failure still leaves
// the value in memory for this process.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	_ = c.memory.Set(key, value, c.memoryTTL(ttl))
	return c.backing.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.backing.Delete(key)
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.backing.Clear())
}

// Close releases the backing store when it holds connections
func (c *LayeredCache) Close() error {
	if closer, ok := c.backing.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// memoryTTL keeps short-lived entries short in memory too
func (c *LayeredCache) memoryTTL(ttl time.Duration) time.Duration {
	if ttl < 0 || ttl > 0 && (c.memory.defaultTTL == gocache.NoExpiration || ttl < c.memory.defaultTTL) {
		return ttl
	}
	return 0
}
