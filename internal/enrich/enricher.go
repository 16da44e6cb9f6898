// Package enrich fills in article text for documents that arrived with a
// title only.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/perspecta/internal/cache"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/util"
	"github.com/ppiankov/perspecta/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Enricher fetches and extracts page text with bounded concurrency
type Enricher struct {
	fetcher  *Fetcher
	robots   *util.RobotsChecker // nil skips the robots.txt check
	limiter  *worker.Limiter
	cache    cache.Cache
	ttl      time.Duration
	maxChars int
	workers  int
	logger   logger.Logger
}

// Config collects the Enricher dependencies
type Config struct {
	Enrich   model.EnrichConfig
	HTTP     model.HTTPConfig
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   logger.Logger
}

// New creates an Enricher from configuration
func New(cfg Config) *Enricher {
	proxy := util.ProxyConfig{
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
	timeout := cfg.Enrich.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	e := &Enricher{
		fetcher:  NewFetcher(timeout, cfg.HTTP.UserAgent, cfg.Enrich.MaxBytes, proxy),
		limiter:  worker.NewLimiter(cfg.Enrich.RequestsPerSecond, 1),
		cache:    cfg.Cache,
		ttl:      cfg.CacheTTL,
		maxChars: cfg.Enrich.MaxChars,
		workers:  cfg.Enrich.Workers,
		logger:   logger.OrNop(cfg.Logger),
	}
	if cfg.Enrich.RequestsPerSecond <= 0 {
		e.limiter = nil
	}
	if cfg.Enrich.RespectRobots {
		e.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, timeout, util.NewHTTPClient(timeout, proxy))
	}
	if e.workers <= 0 {
		e.workers = 4
	}
	return e
}

type pageJob struct {
	e   *Enricher
	url string
}

type pageResult struct {
	text string
	err  error
}

func (r *pageResult) GetError() error { return r.err }

func (j *pageJob) Execute(ctx context.Context) worker.Result {
	text, err := j.e.Text(ctx, j.url)
	return &pageResult{text: text, err: err}
}

// Text returns the extracted, truncated text of one page
func (e *Enricher) Text(ctx context.Context, rawURL string) (string, error) {
	key := cache.CacheKey(cache.NamespacePage, rawURL)
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			return string(data), nil
		}
	}

	var crawlDelay time.Duration
	if e.robots != nil {
		allowed, delay, err := e.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", ErrDisallowed
		}
		crawlDelay = delay
	}
	if err := e.limiter.WaitHost(ctx, rawURL, crawlDelay); err != nil {
		return "", err
	}

	page, err := e.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text := Truncate(ExtractText(page.HTML, page.FinalURL), e.maxChars)

	if e.cache != nil && text != "" {
		if err := e.cache.Set(key, []byte(text), e.ttl); err != nil {
			e.logger.Debug("Page cache write failed", logger.Error(err))
		}
	}
	return text, nil
}

// Texts fetches every URL concurrently and returns the non-empty texts by
// URL. Failures are logged and leave the URL out.
func (e *Enricher) Texts(ctx context.Context, urls []string) map[string]string {
	out := make(map[string]string, len(urls))
	if len(urls) == 0 {
		return out
	}

	jobs := make([]worker.Job, len(urls))
	for i, u := range urls {
		jobs[i] = &pageJob{e: e, url: u}
	}

	failed := 0
	for i, res := range worker.RunOrdered(ctx, e.workers, jobs) {
		pr, ok := res.(*pageResult)
		if !ok || pr.err != nil {
			failed++
			if ok {
				e.logger.Debug("Page enrichment failed",
					logger.String("url", urls[i]),
					logger.Error(pr.err),
				)
			}
			continue
		}
		if pr.text != "" {
			out[urls[i]] = pr.text
		}
	}

	e.logger.Info("Enrichment complete",
		logger.Int("pages", len(urls)),
		logger.Int("enriched", len(out)),
		logger.Int("failed", failed),
	)
	return out
}

// Targets returns the URLs of ranked documents whose body is empty in docs,
// in ranking order without repeats
func Targets(rankings []model.BucketRanking, docs []model.Document) []string {
	body := make(map[string]string, len(docs))
	for _, d := range docs {
		if _, ok := body[d.URL]; !ok {
			body[d.URL] = d.Body
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range rankings {
		for _, d := range r.Documents {
			if seen[d.URL] {
				continue
			}
			seen[d.URL] = true
			b, ok := body[d.URL]
			if !ok {
				b = d.Body
			}
			if b == "" {
				out = append(out, d.URL)
			}
		}
	}
	return out
}

// Apply sets the body of every document whose URL has a text
func Apply(docs []model.Document, texts map[string]string) {
	for i := range docs {
		if text, ok := texts[docs[i].URL]; ok && docs[i].Body == "" {
			docs[i].Body = text
		}
	}
}
