// Package rank scores documents against a claim by embedding similarity.
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/perspecta/internal/embed"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/model"
)

// Defaults for the global relevance pass
const (
	DefaultTopK      = model.DefaultTopK
	DefaultThreshold = model.DefaultThreshold
)

// TextMode selects the document text that gets embedded
type TextMode int

const (
	// TitleAndBody embeds title + " " + body
	TitleAndBody TextMode = iota
	// TitleOnly embeds the title alone
	TitleOnly
)

// Options control one ranking pass
type Options struct {
	TopK      int // <= 0 keeps every document above the threshold
	Threshold float64
	Text      TextMode
}

// Ranker embeds a claim and its candidate documents and keeps the closest
type Ranker struct {
	embedder embed.Embedder
	logger   logger.Logger
}

// NewRanker creates a ranker over embedder
func NewRanker(embedder embed.Embedder, log logger.Logger) *Ranker {
	return &Ranker{embedder: embedder, logger: logger.OrNop(log)}
}

// Rank returns at most TopK documents with similarity >= Threshold, most
// similar first, ranked 1..n. Ties keep input order.
func (r *Ranker) Rank(ctx context.Context, claim string, docs []model.Document, opts Options) ([]model.ScoredDocument, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	claimVecs, err := r.embedder.Embed(ctx, []string{claim})
	if err != nil {
		return nil, fmt.Errorf("embed claim: %w", err)
	}
	if len(claimVecs) != 1 {
		return nil, fmt.Errorf("embed claim: got %d vectors, want 1", len(claimVecs))
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = documentText(d, opts.Text)
	}
	docVecs, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(docVecs) != len(docs) {
		return nil, fmt.Errorf("embed documents: got %d vectors, want %d", len(docVecs), len(docs))
	}

	sims := make([]float64, len(docs))
	for i, v := range docVecs {
		sims[i] = embed.CosineSimilarity(claimVecs[0], v)
	}

	selected := Select(sims, opts.TopK, opts.Threshold)
	out := make([]model.ScoredDocument, len(selected))
	for rank, idx := range selected {
		out[rank] = model.ScoredDocument{
			Document:   docs[idx],
			Similarity: sims[idx],
			Rank:       rank + 1,
		}
	}

	r.logger.Debug("Ranked documents",
		logger.Int("candidates", len(docs)),
		logger.Int("kept", len(out)),
		logger.Int("top_k", opts.TopK),
		logger.Float64("threshold", opts.Threshold),
	)
	return out, nil
}

// Select returns the indexes of the first k similarities >= t after a
// stable descending sort. k <= 0 means no limit. NaN sorts last and never passes t.
func Select(sims []float64, k int, t float64) []int {
	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sortKey(sims[order[a]]) > sortKey(sims[order[b]])
	})

	out := make([]int, 0, len(order))
	for _, idx := range order {
		if k > 0 && len(out) == k {
			break
		}
		if !(sims[idx] >= t) {
			break // sorted: nothing later passes
		}
		out = append(out, idx)
	}
	return out
}

func sortKey(s float64) float64 {
	if math.IsNaN(s) {
		return math.Inf(-1)
	}
	return s
}

func documentText(d model.Document, mode TextMode) string {
	if mode == TitleOnly {
		return d.Title
	}
	return d.Text()
}
