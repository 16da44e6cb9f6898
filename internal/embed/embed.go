// Package embed turns text into vectors for semantic similarity.
package embed

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/util"
)

// Embedder maps texts to vectors. The result has one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
	Model() string
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// New builds the embedder selected by cfg
func New(cfg model.EmbeddingConfig, httpCfg model.HTTPConfig) (Embedder, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := util.NewHTTPClient(timeout, util.ProxyConfig{
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	})

	switch strings.ToLower(cfg.Provider) {
	case "", "tei":
		return NewTEIEmbedder(cfg.BaseURL, cfg.Model, cfg.BatchSize, client), nil
	case "ollama":
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama embedding model must be specified (e.g., nomic-embed-text)")
		}
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, client), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.BatchSize, client)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: tei, ollama, openai)", cfg.Provider)
	}
}

// Registry hands out one embedder per provider and model for the life of the process
type Registry struct {
	mu        sync.Mutex
	embedders map[string]Embedder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{embedders: make(map[string]Embedder)}
}

var defaultRegistry = NewRegistry()

// Shared returns the process-wide embedder for cfg, building it on first use
func Shared(cfg model.EmbeddingConfig, httpCfg model.HTTPConfig) (Embedder, error) {
	return defaultRegistry.Get(cfg, httpCfg)
}

// Get returns the embedder for cfg's provider and model, building it once
func (r *Registry) Get(cfg model.EmbeddingConfig, httpCfg model.HTTPConfig) (Embedder, error) {
	key := strings.ToLower(cfg.Provider) + "\x00" + cfg.Model + "\x00" + cfg.BaseURL

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.embedders[key]; ok {
		return e, nil
	}
	e, err := New(cfg, httpCfg)
	if err != nil {
		return nil, err
	}
	r.embedders[key] = e
	return e, nil
}

// Len returns the number of embedders built so far
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.embedders)
}

func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func checkCount(provider string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s returned %d embeddings for %d inputs", provider, got, want)
	}
	return nil
}
