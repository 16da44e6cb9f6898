package embed

import (
	"context"
	"time"

	"github.com/ppiankov/perspecta/internal/cache"
)

// CachedEmbedder memoizes vectors per text. Only misses reach the wrapped embedder.
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps next. A nil cache returns next unchanged.
func NewCachedEmbedder(next Embedder, c cache.Cache, ttl time.Duration) Embedder {
	if c == nil {
		return next
	}
	return &CachedEmbedder{next: next, cache: c, ttl: ttl}
}

func (e *CachedEmbedder) Name() string  { return e.next.Name() }
func (e *CachedEmbedder) Model() string { return e.next.Model() }

// Embed serves hits from the cache and embeds the rest in one call
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		keys[i] = cache.CacheKey(cache.NamespaceEmbedding, e.next.Name(), e.next.Model(), text)
		var vec []float32
		if cache.GetJSON(e.cache, keys[i], &vec) && len(vec) > 0 {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := e.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if err := checkCount(e.next.Name(), len(vectors), len(missing)); err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		i := missingIdx[j]
		out[i] = vec
		_ = cache.SetJSON(e.cache, keys[i], vec, e.ttl)
	}
	return out, nil
}
