// Package query expands a claim into structured search queries.
package query

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
)

const (
	// DefaultCount is the number of queries produced per claim
	DefaultCount = model.DefaultQueryCount

	temperature = 0.3
	component   = "diversifier"
)

// Kind classifies the provider reply
type Kind int

const (
	// KindQueries means at least one usable query was parsed
	KindQueries Kind = iota
	// KindRejected means the provider returned the rejection sentinel
	KindRejected
	// KindUnparseable means the reply was empty or had no usable segment
	KindUnparseable
)

func (k Kind) String() string {
	switch k {
	case KindQueries:
		return "queries"
	case KindRejected:
		return "rejected"
	default:
		return "unparseable"
	}
}

// Result is the outcome of diversifying one claim
type Result struct {
	Kind    Kind
	Queries []model.Query // Exactly Count entries unless Kind is KindRejected

	// Fallback is set when Queries are the claim repeated
	Fallback bool
	// ErrKind is the provider error kind behind a fallback, if any
	ErrKind llm.Kind
}

// Rejected reports whether the claim must not be searched
func (r Result) Rejected() bool {
	return r.Kind == KindRejected
}

// Diversifier turns one claim into Count structured queries
type Diversifier struct {
	provider llm.Provider
	count    int
	logger   logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Diversifier
type Option func(*Diversifier)

// WithCount sets the number of queries
func WithCount(n int) Option {
	return func(d *Diversifier) {
		if n > 0 {
			d.count = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(d *Diversifier) { d.logger = logger.OrNop(l) }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Diversifier) { d.metrics = m }
}

// WithClock overrides the clock used for relative dates in the prompt
func WithClock(now func() time.Time) Option {
	return func(d *Diversifier) { d.now = now }
}

// NewDiversifier creates a Diversifier
func NewDiversifier(provider llm.Provider, opts ...Option) *Diversifier {
	d := &Diversifier{
		provider: provider,
		count:    DefaultCount,
		logger:   logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Count returns the number of queries produced per claim
func (d *Diversifier) Count() int {
	return d.count
}

// Diversify calls the provider once and never fails: provider errors and
// unusable replies fall back to the claim itself repeated Count times.
func (d *Diversifier) Diversify(ctx context.Context, claim string) Result {
	resp, err := d.provider.Generate(ctx, llm.Request{
		Prompt:      BuildPrompt(claim, d.count, d.now()),
		Temperature: temperature,
	})
	if err != nil {
		kind := llm.KindOf(err)
		d.logger.Warn("Query generation failed, using claim as query",
			logger.String("kind", string(kind)),
			logger.Error(err),
		)
		d.metrics.ProviderError(component, string(kind))
		d.metrics.Fallback(component)
		return Result{Kind: KindUnparseable, Queries: Fallback(claim, d.count), Fallback: true, ErrKind: kind}
	}

	kind, queries := Parse(resp.Text)
	switch kind {
	case KindRejected:
		d.logger.Info("Claim rejected by query generator")
		return Result{Kind: KindRejected}
	case KindUnparseable:
		d.logger.Warn("Query generator reply unparseable, using claim as query",
			logger.Int("reply_length", len(resp.Text)),
		)
		d.metrics.Fallback(component)
		return Result{Kind: KindUnparseable, Queries: Fallback(claim, d.count), Fallback: true}
	}

	if len(queries) != d.count {
		d.logger.Debug("Adjusting query count",
			logger.Int("parsed", len(queries)),
			logger.Int("want", d.count),
		)
	}
	return Result{Kind: KindQueries, Queries: Pad(queries, d.count)}
}

// Parse classifies a provider reply and extracts its queries
func Parse(text string) (Kind, []model.Query) {
	text = strings.TrimSpace(text)
	if text == RejectionSentinel {
		return KindRejected, nil
	}
	if text == "" {
		return KindUnparseable, nil
	}

	var queries []model.Query
	for _, segment := range strings.Split(text, Separator) {
		q := Normalize(segment)
		if q.IsZero() {
			continue
		}
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return KindUnparseable, nil
	}
	return KindQueries, queries
}

// Normalize turns one reply segment into a structured query. Segments that
// neither start with query= nor carry a location or date parameter are
// treated as bare search terms.
func Normalize(segment string) model.Query {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return model.Query{}
	}
	if !strings.HasPrefix(segment, model.ParamQuery+"=") &&
		!strings.Contains(segment, model.ParamSourceCountry+"=") &&
		!strings.Contains(segment, model.ParamSourceRegion+"=") &&
		!strings.Contains(segment, model.ParamStartDateTime+"=") {
		segment = model.ParamQuery + "=" + segment
	}
	return model.ParseQuery(segment)
}

// Pad repeats the last query until there are n, or truncates to n
func Pad(queries []model.Query, n int) []model.Query {
	if len(queries) == 0 || n <= 0 {
		return nil
	}
	out := make([]model.Query, 0, n)
	for i := 0; i < n; i++ {
		if i < len(queries) {
			out = append(out, queries[i])
		} else {
			out = append(out, queries[len(queries)-1])
		}
	}
	return out
}

// Fallback returns n copies of the claim as an exact-phrase query
func Fallback(claim string, n int) []model.Query {
	out := make([]model.Query, n)
	for i := range out {
		out[i] = model.Query{Params: []model.Param{{Key: model.ParamQuery, Value: `"` + claim + `"`}}}
	}
	return out
}
