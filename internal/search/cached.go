package search

import (
	"context"
	"time"

	"github.com/ppiankov/perspecta/internal/cache"
	"github.com/ppiankov/perspecta/internal/model"
)

// CachedBackend memoizes non-empty result lists per backend and encoded query
type CachedBackend struct {
	next  Backend
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedBackend wraps next. A nil cache or a non-positive ttl returns
// next unchanged, so every search reaches the backend.
func NewCachedBackend(next Backend, c cache.Cache, ttl time.Duration) Backend {
	if c == nil || ttl <= 0 {
		return next
	}
	return &CachedBackend{next: next, cache: c, ttl: ttl}
}

func (b *CachedBackend) Name() string { return b.next.Name() }

func (b *CachedBackend) Search(ctx context.Context, q model.Query) ([]model.Document, error) {
	key := cache.CacheKey(cache.NamespaceSearch, b.next.Name(), q.Encode())

	var docs []model.Document
	if cache.GetJSON(b.cache, key, &docs) {
		return docs, nil
	}

	docs, err := b.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) > 0 {
		_ = cache.SetJSON(b.cache, key, docs, b.ttl)
	}
	return docs, nil
}
