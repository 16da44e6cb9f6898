package pipeline

import (
	"fmt"

	"github.com/ppiankov/perspecta/internal/cache"
	"github.com/ppiankov/perspecta/internal/embed"
	"github.com/ppiankov/perspecta/internal/enrich"
	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/search"
	"github.com/ppiankov/perspecta/internal/whitelist"
)

// Build constructs the providers, backends and caches named by cfg and
// wires them into a Pipeline
func Build(cfg *model.Config, log logger.Logger, m *metrics.Metrics) (*Pipeline, error) {
	log = logger.OrNop(log)

	provider, err := llm.NewProvider(llm.ConfigFromModel(*cfg))
	if err != nil {
		return nil, fmt.Errorf("generation provider: %w", err)
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	embedder, err := embed.Shared(cfg.Embedding, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	embedder = embed.NewCachedEmbedder(embedder, c, cfg.Cache.EmbeddingTTL)

	backends, err := search.New(cfg, c)
	if err != nil {
		return nil, fmt.Errorf("search backend: %w", err)
	}

	deps := Deps{
		Provider:   provider,
		Embedder:   embedder,
		Search:     backends.Primary,
		Supplement: backends.Supplement,
		Logger:     log,
		Metrics:    m,
	}
	if cfg.Search.WhitelistOnly {
		deps.Whitelist = whitelist.Default(cfg.Search.ExtraDomains...)
	}
	if cfg.Enrich.Enabled {
		deps.Enricher = enrich.New(enrich.Config{
			Enrich:   cfg.Enrich,
			HTTP:     cfg.HTTP,
			Cache:    c,
			CacheTTL: cfg.Cache.PageTTL,
			Logger:   log,
		})
	}

	log.Info("Pipeline ready",
		logger.String("provider", provider.Name()),
		logger.String("embedder", embedder.Name()),
		logger.String("embedding_model", embedder.Model()),
		logger.String("search", backends.Primary.Name()),
		logger.Bool("supplement", backends.Supplement != nil),
		logger.Bool("whitelist_only", cfg.Search.WhitelistOnly),
		logger.Bool("enrich", cfg.Enrich.Enabled),
		logger.Bool("cache", c != nil),
	)
	return New(cfg, deps), nil
}
