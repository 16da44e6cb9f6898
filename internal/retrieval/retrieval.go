// Package retrieval fans structured queries out to a search backend and
// merges the results into one deduplicated document list.
package retrieval

import (
	"context"
	"time"

	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/search"
	"github.com/ppiankov/perspecta/internal/whitelist"
	"github.com/ppiankov/perspecta/internal/worker"
)

// Stats describes one retrieval pass
type Stats struct {
	Queries     int // Queries sent to the primary backend
	Failed      int // Calls that errored or timed out, supplement included
	Raw         int // Documents before dedup
	Supplement  int // Documents from the claim-level supplement
	Deduped     int // Documents after dedup
	Whitelisted int // Documents removed by the whitelist
}

// Retriever runs queries concurrently and merges results in query order
type Retriever struct {
	backend     search.Backend
	supplement  search.Backend
	whitelist   *whitelist.Whitelist
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
	metrics     *metrics.Metrics
}

// Option configures a Retriever
type Option func(*Retriever)

// WithSupplement adds a backend queried once with the raw claim. Its
// results are merged ahead of the first query's.
func WithSupplement(b search.Backend) Option {
	return func(r *Retriever) { r.supplement = b }
}

// WithWhitelist restricts results to whitelisted outlets
func WithWhitelist(w *whitelist.Whitelist) Option {
	return func(r *Retriever) { r.whitelist = w }
}

// WithConcurrency sets the number of parallel search calls
func WithConcurrency(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(r *Retriever) { r.logger = logger.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Retriever) { r.metrics = m }
}

// New creates a Retriever over backend
func New(backend search.Backend, opts ...Option) *Retriever {
	r := &Retriever{
		backend:     backend,
		concurrency: 4,
		timeout:     30 * time.Second,
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type searchJob struct {
	backend search.Backend
	query   model.Query
	timeout time.Duration
}

type searchResult struct {
	docs []model.Document
	err  error
}

func (r *searchResult) GetError() error {
	return r.err
}

func (j *searchJob) Execute(ctx context.Context) worker.Result {
	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	docs, err := j.backend.Search(callCtx, j.query)
	return &searchResult{docs: docs, err: err}
}

// Retrieve never fails: a failing call contributes no documents
func (r *Retriever) Retrieve(ctx context.Context, claim string, queries []model.Query) ([]model.Document, Stats) {
	stats := Stats{Queries: len(queries)}

	var jobs []worker.Job
	offset := 0
	if r.supplement != nil {
		claimQuery := model.Query{Params: []model.Param{{Key: model.ParamQuery, Value: claim}}}
		jobs = append(jobs, &searchJob{backend: r.supplement, query: claimQuery, timeout: r.timeout})
		offset = 1
	}
	for _, q := range queries {
		jobs = append(jobs, &searchJob{backend: r.backend, query: q, timeout: r.timeout})
	}

	results := worker.RunOrdered(ctx, r.concurrency, jobs)

	var merged []model.Document
	for i, res := range results {
		job := jobs[i].(*searchJob)
		name := job.backend.Name()

		sr, ok := res.(*searchResult)
		if !ok || sr.err != nil {
			stats.Failed++
			r.metrics.SearchFailed(name)
			fields := []logger.Field{
				logger.String("backend", name),
				logger.Int("query_index", i-offset),
				logger.String("query", job.query.Encode()),
			}
			if ok {
				fields = append(fields, logger.Error(sr.err))
			} else {
				fields = append(fields, logger.String("reason", "not executed"))
			}
			r.logger.Warn("Search call failed", fields...)
			continue
		}

		r.metrics.SearchReturned(name, len(sr.docs))
		if i < offset {
			stats.Supplement = len(sr.docs)
		}
		merged = append(merged, sr.docs...)
	}

	stats.Raw = len(merged)
	docs := Dedup(merged)
	stats.Deduped = len(docs)

	if r.whitelist != nil {
		filtered := r.whitelist.Filter(docs)
		stats.Whitelisted = len(docs) - len(filtered)
		docs = filtered
	}

	r.logger.Info("Retrieval complete",
		logger.Int("queries", stats.Queries),
		logger.Int("failed", stats.Failed),
		logger.Int("raw", stats.Raw),
		logger.Int("deduped", stats.Deduped),
		logger.Int("whitelisted_out", stats.Whitelisted),
		logger.Int("kept", len(docs)),
	)
	return docs, stats
}

// Dedup keeps the first occurrence of each URL, in order. Documents
// without a URL are dropped.
func Dedup(docs []model.Document) []model.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if d.URL == "" || seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		out = append(out, d)
	}
	return out
}
