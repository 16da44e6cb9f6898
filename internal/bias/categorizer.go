// Package bias groups outlets into editorial perspectives and ranks each
// perspective's coverage separately.
package bias

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/rank"
)

const (
	// DefaultTopPerBucket is the number of documents kept per perspective
	DefaultTopPerBucket = model.DefaultTopPerBucket

	temperature = 0.1

	componentDiscover = "bias"
	componentRank     = "bucket_rank"

	reasonParseFailed = "Failed to analyze bias"
)

// Categorizer discovers perspectives with a generation provider and ranks
// their documents with an embedding ranker
type Categorizer struct {
	provider llm.Provider
	ranker   *rank.Ranker
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewCategorizer creates a Categorizer
func NewCategorizer(provider llm.Provider, ranker *rank.Ranker, log logger.Logger, m *metrics.Metrics) *Categorizer {
	return &Categorizer{
		provider: provider,
		ranker:   ranker,
		logger:   logger.OrNop(log),
		metrics:  m,
	}
}

// Discover asks the provider to group sources into perspectives. It never
// fails: provider errors and unusable replies yield a single empty neutral
// bucket. The result always has exactly one neutral bucket.
func (c *Categorizer) Discover(ctx context.Context, claim string, sources []string) model.Categorization {
	sorted := distinctSorted(sources)

	resp, err := c.provider.Generate(ctx, llm.Request{
		Prompt:      BuildPrompt(claim, sorted),
		Temperature: temperature,
	})
	if err != nil {
		kind := llm.KindOf(err)
		c.logger.Warn("Bias analysis failed, using neutral fallback",
			logger.String("kind", string(kind)),
			logger.Error(err),
		)
		c.metrics.ProviderError(componentDiscover, string(kind))
		c.metrics.Fallback(componentDiscover)
		return Fallback(fmt.Sprintf("Error in analysis: %s", kind))
	}

	cat, err := Parse(resp.Text)
	if err != nil {
		c.logger.Warn("Bias analysis reply unparseable, using neutral fallback",
			logger.Int("reply_length", len(resp.Text)),
			logger.Error(err),
		)
		c.metrics.Fallback(componentDiscover)
		return Fallback(reasonParseFailed)
	}

	cat = EnsureNeutral(cat)
	c.logger.Info("Bias analysis complete",
		logger.Int("sources", len(sorted)),
		logger.Int("buckets", len(cat.Buckets)),
	)
	return cat
}

// Fallback is the categorization used when discovery fails
func Fallback(reasoning string) model.Categorization {
	return model.Categorization{
		Buckets:   []model.PerspectiveBucket{{Label: model.NeutralLabel, Sources: []string{}}},
		Reasoning: reasoning,
	}
}

// Assign places each document in the first bucket, in bucket order, that
// lists its source. Documents from unlisted sources are dropped.
func Assign(cat model.Categorization, docs []model.Document) map[string][]model.Document {
	out := make(map[string][]model.Document, len(cat.Buckets))
	for _, b := range cat.Buckets {
		out[b.Label] = nil
	}
	for _, d := range docs {
		for _, b := range cat.Buckets {
			if b.Contains(d.Source) {
				out[b.Label] = append(out[b.Label], d)
				break
			}
		}
	}
	return out
}

// RankBuckets ranks each bucket's documents by title against claim, keeping
// the top m per bucket. Buckets are returned in categorization order. A
// failing bucket gets an empty ranking and does not affect the others.
func (c *Categorizer) RankBuckets(ctx context.Context, claim string, cat model.Categorization, assigned map[string][]model.Document, threshold float64, m int) []model.BucketRanking {
	if m <= 0 {
		m = DefaultTopPerBucket
	}

	out := make([]model.BucketRanking, 0, len(cat.Buckets))
	for _, b := range cat.Buckets {
		docs := assigned[b.Label]
		br := model.BucketRanking{
			Label:       b.Label,
			Description: b.Description,
			Assigned:    len(docs),
			Documents:   []model.ScoredDocument{},
		}
		if len(docs) == 0 {
			out = append(out, br)
			continue
		}

		ranked, err := c.ranker.Rank(ctx, claim, docs, rank.Options{
			TopK:      m,
			Threshold: threshold,
			Text:      rank.TitleOnly,
		})
		if err != nil {
			c.logger.Warn("Ranking bucket failed",
				logger.String("bucket", b.Label),
				logger.Int("documents", len(docs)),
				logger.Error(err),
			)
			c.metrics.Fallback(componentRank)
			br.Error = err.Error()
		} else if len(ranked) > 0 {
			br.Documents = ranked
		}
		out = append(out, br)
	}
	return out
}

func distinctSorted(sources []string) []string {
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
