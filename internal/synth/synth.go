// Package synth writes the cross-perspective summary of a claim's coverage.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
)

const (
	temperature = 0.2
	component   = "synth"
)

// Summary is the synthesizer output
type Summary struct {
	Text     string
	Fallback bool     // Text is the degraded source listing
	ErrKind  llm.Kind // Provider error behind a fallback
}

// Synthesizer asks the generation provider for the final summary
type Synthesizer struct {
	provider llm.Provider
	budget   int
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithDigestBudget sets the article budget split across buckets
func WithDigestBudget(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.budget = n
		}
	}
}

// NewSynthesizer creates a Synthesizer
func NewSynthesizer(provider llm.Provider, log logger.Logger, m *metrics.Metrics, opts ...Option) *Synthesizer {
	s := &Synthesizer{provider: provider, budget: maxDigestArticles, logger: logger.OrNop(log), metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize writes the summary for claim from the bucket rankings. docs is
// the full retrieved set, used for article content. It never fails: a
// provider error yields a deterministic listing of the selected sources.
func (s *Synthesizer) Summarize(ctx context.Context, claim string, rankings []model.BucketRanking, docs []model.Document, reasoning string) Summary {
	if NonEmpty(rankings) == 0 {
		return Summary{Text: model.MessageNoSummary}
	}

	perBucket := allocate(NonEmpty(rankings), s.budget)
	digest := BuildDigest(rankings, docs, perBucket)
	resp, err := s.provider.Generate(ctx, llm.Request{
		Prompt:      BuildPrompt(claim, digest),
		Temperature: temperature,
	})
	if err != nil {
		kind := llm.KindOf(err)
		s.logger.Warn("Summary generation failed, returning source listing",
			logger.String("kind", string(kind)),
			logger.Error(err),
		)
		s.metrics.ProviderError(component, string(kind))
		s.metrics.Fallback(component)
		return Summary{
			Text:     Envelope(degraded(rankings, kind, perBucket), reasoning),
			Fallback: true,
			ErrKind:  kind,
		}
	}

	s.logger.Debug("Summary generated",
		logger.Int("digest_length", len(digest)),
		logger.Int("summary_length", len(resp.Text)),
	)
	return Summary{Text: Envelope(strings.TrimSpace(resp.Text), reasoning)}
}

// Envelope wraps summary text and the categorization rationale
func Envelope(text, reasoning string) string {
	return "MULTI-PERSPECTIVE FACTUAL SUMMARY:\n\n" + text + "\n\nANALYSIS REASONING:\n\n" + reasoning
}

func degraded(rankings []model.BucketRanking, kind llm.Kind, perBucket int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SUMMARY\nA generated summary is unavailable (%s). The most relevant sources found for this query are listed below by category.\n\nSOURCES BY CATEGORY\n", kind)

	for _, r := range rankings {
		if len(r.Documents) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s SOURCES\n", strings.ToUpper(r.Label))
		for i, d := range r.Documents[:min(perBucket, len(r.Documents))] {
			fmt.Fprintf(&b, "%d. %s", i+1, d.Source)
			if d.PublishedAt != "" {
				fmt.Fprintf(&b, " (%s)", d.PublishedAt)
			}
			fmt.Fprintf(&b, " URL %s\n", d.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
