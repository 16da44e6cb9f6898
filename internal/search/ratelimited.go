package search

import (
	"context"

	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/worker"
)

// RateLimitedBackend spaces calls to one backend through a shared limiter
type RateLimitedBackend struct {
	next    Backend
	limiter *worker.Limiter
}

// NewRateLimitedBackend wraps next. A nil limiter returns next unchanged.
func NewRateLimitedBackend(next Backend, limiter *worker.Limiter) Backend {
	if limiter == nil {
		return next
	}
	return &RateLimitedBackend{next: next, limiter: limiter}
}

func (b *RateLimitedBackend) Name() string { return b.next.Name() }

func (b *RateLimitedBackend) Search(ctx context.Context, q model.Query) ([]model.Document, error) {
	if err := b.limiter.WaitKey(ctx, b.next.Name()); err != nil {
		return nil, err
	}
	return b.next.Search(ctx, q)
}
