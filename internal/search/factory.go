package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/perspecta/internal/cache"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/util"
	"github.com/ppiankov/perspecta/internal/worker"
)

// Backends holds the primary backend and the optional claim-level supplement
type Backends struct {
	Primary    Backend
	Supplement Backend // nil unless search.google_supplement is on
}

// New builds the configured backends, wrapped with rate limiting and caching
func New(cfg *model.Config, c cache.Cache) (*Backends, error) {
	timeout := cfg.Search.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client := util.NewHTTPClient(timeout, util.ProxyConfig{
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})

	var primary Backend
	switch strings.ToLower(cfg.Search.Backend) {
	case "", "gdelt":
		primary = NewGDELTBackend(cfg.Search.BaseURL, cfg.Search.MaxRecords, cfg.HTTP.UserAgent, client)
	case "elasticsearch", "es":
		b, err := NewElasticsearchBackend(cfg.Search.Elasticsearch, cfg.Search.MaxRecords, client.Transport)
		if err != nil {
			return nil, err
		}
		primary = b
	default:
		return nil, fmt.Errorf("unknown search backend: %s (supported: gdelt, elasticsearch)", cfg.Search.Backend)
	}

	var limiter *worker.Limiter
	if cfg.Search.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.Search.RequestsPerSecond, cfg.Search.Burst)
	}

	out := &Backends{
		Primary: NewCachedBackend(NewRateLimitedBackend(primary, limiter), c, cfg.Cache.SearchTTL),
	}

	if cfg.Search.GoogleSupplement {
		serp, err := NewSerpAPIBackend(cfg.Search.SerpAPI, client)
		if err != nil {
			return nil, err
		}
		out.Supplement = NewCachedBackend(NewRateLimitedBackend(serp, limiter), c, cfg.Cache.SearchTTL)
	}
	return out, nil
}
