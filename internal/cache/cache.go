package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/perspecta/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key namespaces
const (
	NamespaceSearch    = "search"
	NamespaceEmbedding = "embed"
	NamespacePage      = "page"
)

// CacheKey generates a namespaced cache key from arbitrary parts
func CacheKey(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "perspecta:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// GetJSON decodes a cached JSON value into dst. A corrupt entry is treated as a miss.
func GetJSON(c Cache, key string, dst any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON encodes value as JSON and stores it
func SetJSON(c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, data, ttl)
}

// New builds the cache backend selected by cfg. It returns nil when caching is disabled.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryCache(cfg.EmbeddingTTL, 10*time.Minute), nil
	case "layered":
		lc, err := NewLayeredCache(cfg.EmbeddingTTL, cfg.Dir, cfg.EmbeddingTTL)
		if err != nil {
			return nil, err
		}
		return lc, nil
	case "redis":
		rc, err := NewRedisCache(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewTieredCache(cfg.EmbeddingTTL, rc), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, layered, redis)", cfg.Backend)
	}
}
