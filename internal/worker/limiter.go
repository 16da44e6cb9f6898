package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBurst = 1

// Limiter keeps one token bucket per key. Search backends use their backend
// name as the key, page fetches use the URL host. A nil *Limiter never blocks.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter granting perSecond requests per key
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// WaitKey blocks until key has a token or ctx ends
func (l *Limiter) WaitKey(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.bucket(key).Wait(ctx)
}

// WaitHost blocks until the host of rawURL has a token. A positive
// crawlDelay lowers the host's rate to one request per crawlDelay when that
// is stricter than the configured rate.
func (l *Limiter) WaitHost(ctx context.Context, rawURL string, crawlDelay time.Duration) error {
	if l == nil {
		return nil
	}
	host, err := HostKey(rawURL)
	if err != nil {
		return err
	}

	b := l.bucket(host)
	if crawlDelay > 0 {
		if every := rate.Every(crawlDelay); every < b.Limit() {
			b.SetLimit(every)
		}
	}
	return b.Wait(ctx)
}

// Allow reports whether key has a token now, consuming it when it does
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.bucket(key).Allow()
}

// HostKey returns the lower-cased host of rawURL without port
func HostKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return host, nil
}
