// Package embedtest provides a table-driven embed.Embedder for tests.
package embedtest

import (
	"context"
	"errors"
	"math"
	"sync"
)

// ErrUnknownText is returned for texts missing from the table when Strict is set
var ErrUnknownText = errors.New("embedtest: unknown text")

// Embedder looks vectors up by exact text. Unknown texts map to Default.
type Embedder struct {
	Vectors map[string][]float32
	Default []float32
	Strict  bool
	Err     error

	mu    sync.Mutex
	calls [][]string
}

// Similar returns a unit vector whose cosine with Claim is s
func Similar(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(math.Max(0, 1-s*s)))}
}

// Claim is the reference vector Similar measures against
func Claim() []float32 {
	return []float32{1, 0}
}

func (e *Embedder) Name() string  { return "fake" }
func (e *Embedder) Model() string { return "fake-embed" }

// Embed returns the table vectors for texts
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string(nil), texts...))
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := e.Vectors[t]
		if !ok {
			if e.Strict {
				return nil, ErrUnknownText
			}
			v = e.Default
			if v == nil {
				v = []float32{0, 1}
			}
		}
		out[i] = v
	}
	return out, nil
}

// Calls returns the text batches seen so far
func (e *Embedder) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.calls))
	copy(out, e.calls)
	return out
}
