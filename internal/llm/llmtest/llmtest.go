// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ppiankov/perspecta/internal/llm"
)

// Provider replays scripted replies in order. When the script is exhausted
// the last entry repeats.
type Provider struct {
	Replies []Reply

	mu       sync.Mutex
	requests []llm.Request
}

// Reply is one scripted response
type Reply struct {
	Text string
	Err  error
}

// Text returns a provider that always answers with text
func Text(text string) *Provider {
	return &Provider{Replies: []Reply{{Text: text}}}
}

// Failing returns a provider whose calls fail with the given kind
func Failing(kind llm.Kind) *Provider {
	return &Provider{Replies: []Reply{{Err: &llm.Error{Provider: "fake", Kind: kind, Err: errString(kind)}}}}
}

type errString llm.Kind

func (e errString) Error() string { return "scripted " + string(e) + " failure" }

func (p *Provider) Name() string                         { return "fake" }
func (p *Provider) IsAvailable(ctx context.Context) bool { return true }

// Generate returns the next scripted reply
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := len(p.requests)
	p.requests = append(p.requests, req)

	if err := ctx.Err(); err != nil {
		return nil, &llm.Error{Provider: "fake", Kind: llm.KindCanceled, Err: err}
	}
	if len(p.Replies) == 0 {
		return &llm.Response{Model: "fake"}, nil
	}
	if idx >= len(p.Replies) {
		idx = len(p.Replies) - 1
	}
	r := p.Replies[idx]
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.Response{Text: r.Text, Model: "fake"}, nil
}

// Requests returns the requests seen so far
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls returns the number of Generate calls
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
