// Package pipeline runs a claim through query generation, retrieval,
// ranking, perspective grouping and synthesis.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/perspecta/internal/bias"
	"github.com/ppiankov/perspecta/internal/embed"
	"github.com/ppiankov/perspecta/internal/enrich"
	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/query"
	"github.com/ppiankov/perspecta/internal/rank"
	"github.com/ppiankov/perspecta/internal/retrieval"
	"github.com/ppiankov/perspecta/internal/search"
	"github.com/ppiankov/perspecta/internal/synth"
	"github.com/ppiankov/perspecta/internal/whitelist"
)

// Stage names used in timings and metrics
const (
	StageDiversify  = "diversify"
	StageRetrieve   = "retrieve"
	StageRank       = "rank"
	StageCategorize = "categorize"
	StageBucketRank = "bucket_rank"
	StageEnrich     = "enrich"
	StageSynthesize = "synthesize"
)

// Deps are the external collaborators of a Pipeline
type Deps struct {
	Provider   llm.Provider
	Embedder   embed.Embedder
	Search     search.Backend
	Supplement search.Backend       // Optional claim-level search
	Whitelist  *whitelist.Whitelist // Nil disables filtering
	Enricher   *enrich.Enricher     // Nil disables page fetching
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Pipeline checks claims. It holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	diversifier *query.Diversifier
	retriever   *retrieval.Retriever
	ranker      *rank.Ranker
	categorizer *bias.Categorizer
	synthesizer *synth.Synthesizer
	enricher    *enrich.Enricher

	topK         int
	threshold    float64
	topPerBucket int

	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New wires a Pipeline from configuration and collaborators
func New(cfg *model.Config, deps Deps) *Pipeline {
	log := logger.OrNop(deps.Logger)
	ranker := rank.NewRanker(deps.Embedder, log)

	retrieverOpts := []retrieval.Option{
		retrieval.WithConcurrency(cfg.Search.Concurrency),
		retrieval.WithTimeout(cfg.Search.Timeout),
		retrieval.WithLogger(log),
		retrieval.WithMetrics(deps.Metrics),
	}
	if deps.Supplement != nil {
		retrieverOpts = append(retrieverOpts, retrieval.WithSupplement(deps.Supplement))
	}
	if deps.Whitelist != nil {
		retrieverOpts = append(retrieverOpts, retrieval.WithWhitelist(deps.Whitelist))
	}

	return &Pipeline{
		diversifier: query.NewDiversifier(deps.Provider,
			query.WithCount(cfg.Pipeline.QueryCount),
			query.WithLogger(log),
			query.WithMetrics(deps.Metrics),
		),
		retriever:   retrieval.New(deps.Search, retrieverOpts...),
		ranker:      ranker,
		categorizer: bias.NewCategorizer(deps.Provider, ranker, log, deps.Metrics),
		synthesizer: synth.NewSynthesizer(deps.Provider, log, deps.Metrics,
			synth.WithDigestBudget(cfg.Pipeline.MaxDigestArticles),
		),
		enricher:     deps.Enricher,
		topK:         cfg.Pipeline.TopK,
		threshold:    cfg.Pipeline.Threshold,
		topPerBucket: cfg.Pipeline.TopPerBucket,
		logger:       log,
		metrics:      deps.Metrics,
		now:          time.Now,
	}
}

// Check runs one claim end to end. Degraded provider output never fails the
// check; an error is returned only when ctx ends before an outcome exists.
func (p *Pipeline) Check(ctx context.Context, claim string) (*model.Outcome, error) {
	claim = strings.TrimSpace(claim)
	log := logger.FromContext(ctx, p.logger)
	out := &model.Outcome{Claim: claim, CheckedAt: p.now().UTC()}

	if claim == "" {
		return p.finish(out, model.StatusError, model.MessageEmptyQuery), nil
	}

	var div query.Result
	p.stage(out, StageDiversify, func() {
		div = p.diversifier.Diversify(ctx, claim)
	})
	if div.Rejected() {
		log.Info("Claim rejected", logger.String("claim", claim))
		return p.finish(out, model.StatusRejected, model.MessageRejected), nil
	}
	if div.Fallback {
		out.Fallbacks = append(out.Fallbacks, StageDiversify)
	}
	out.Queries = div.Queries

	var docs []model.Document
	p.stage(out, StageRetrieve, func() {
		docs, _ = p.retriever.Retrieve(ctx, claim, div.Queries)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.Retrieved = len(docs)
	if len(docs) == 0 {
		out.Details = model.DetailsNoResults
		return p.finish(out, model.StatusNoResults, model.MessageNoResults), nil
	}

	var ranked []model.ScoredDocument
	var rankErr error
	p.stage(out, StageRank, func() {
		ranked, rankErr = p.ranker.Rank(ctx, claim, docs, rank.Options{
			TopK:      p.topK,
			Threshold: p.threshold,
			Text:      rank.TitleAndBody,
		})
	})
	if rankErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !llm.IsRecoverable(rankErr) {
			return nil, rankErr
		}
		log.Error("Ranking failed", logger.Error(rankErr), logger.Int("documents", len(docs)))
		out.Details = rankErr.Error()
		return p.finish(out, model.StatusError, model.MessageRankFailure), nil
	}
	out.Ranked = ranked

	var cat model.Categorization
	p.stage(out, StageCategorize, func() {
		cat = p.categorizer.Discover(ctx, claim, model.Sources(ranked))
	})
	if !cat.Parsed {
		out.Fallbacks = append(out.Fallbacks, StageCategorize)
	}
	out.Reasoning = cat.Reasoning

	var rankings []model.BucketRanking
	p.stage(out, StageBucketRank, func() {
		rankings = p.categorizer.RankBuckets(ctx, claim, cat, bias.Assign(cat, docs), p.threshold, p.topPerBucket)
	})
	for _, r := range rankings {
		if r.Error != "" {
			out.Fallbacks = append(out.Fallbacks, StageBucketRank)
			break
		}
	}

	if p.enricher != nil {
		p.stage(out, StageEnrich, func() {
			p.enrich(ctx, rankings, docs)
		})
	}
	out.Buckets = rankings

	var summary synth.Summary
	p.stage(out, StageSynthesize, func() {
		summary = p.synthesizer.Summarize(ctx, claim, rankings, docs, cat.Reasoning)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if summary.Fallback {
		out.Fallbacks = append(out.Fallbacks, StageSynthesize)
	}
	out.Summary = summary.Text

	log.Info("Claim checked",
		logger.Int("queries", len(out.Queries)),
		logger.Int("retrieved", out.Retrieved),
		logger.Int("ranked", len(ranked)),
		logger.Int("buckets", len(rankings)),
		logger.Strings("fallbacks", out.Fallbacks),
	)
	return p.finish(out, model.StatusSuccess, ""), nil
}

// enrich fills empty bodies of ranked documents in both docs and rankings
func (p *Pipeline) enrich(ctx context.Context, rankings []model.BucketRanking, docs []model.Document) {
	targets := enrich.Targets(rankings, docs)
	if len(targets) == 0 {
		return
	}
	texts := p.enricher.Texts(ctx, targets)
	enrich.Apply(docs, texts)
	for i := range rankings {
		for j := range rankings[i].Documents {
			d := &rankings[i].Documents[j]
			if text, ok := texts[d.URL]; ok && d.Body == "" {
				d.Body = text
			}
		}
	}
}

func (p *Pipeline) stage(out *model.Outcome, name string, fn func()) {
	start := time.Now()
	fn()
	d := time.Since(start)
	out.Stages = append(out.Stages, model.StageTiming{Stage: name, Duration: d})
	p.metrics.ObserveStage(name, d)
}

func (p *Pipeline) finish(out *model.Outcome, status model.Status, message string) *model.Outcome {
	out.Status = status
	out.Message = message
	p.metrics.ObserveOutcome(string(status))
	return out
}
