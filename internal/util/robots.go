package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

const (
	maxRobotsBytes = 512 * 1024

	// RobotsTTL is how long a fetched robots.txt is trusted
	RobotsTTL = time.Hour
	// unreachableTTL caches "allow all" for origins whose robots.txt could not be fetched
	unreachableTTL = 5 * time.Minute
)

// robotsPolicy is the cached outcome for one origin. Nil data allows everything.
type robotsPolicy struct {
	data *robotstxt.RobotsData
}

// RobotsChecker answers whether the enricher may fetch an article URL.
// Policies are cached per origin with an expiry, so long-running servers
// pick up robots.txt changes.
type RobotsChecker struct {
	policies   *gocache.Cache
	httpClient *http.Client
	userAgent  string
	agentToken string
}

// NewRobotsChecker creates a checker. A nil client gets a plain client with timeout.
func NewRobotsChecker(userAgent string, timeout time.Duration, client *http.Client) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RobotsChecker{
		policies:   gocache.New(RobotsTTL, 10*time.Minute),
		httpClient: client,
		userAgent:  userAgent,
		agentToken: NormalizeUserAgent(userAgent),
	}
}

// CanFetch reports whether rawURL may be fetched and the crawl delay the
// origin asks for. An unreachable robots.txt allows the fetch.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return false, 0, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	policy := r.policy(ctx, u.Scheme+"://"+u.Host)
	if policy.data == nil {
		return true, 0, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	var delay time.Duration
	if g := policy.data.FindGroup(r.agentToken); g != nil {
		delay = g.CrawlDelay
	}
	return policy.data.TestAgent(path, r.agentToken), delay, nil
}

// IsAllowed returns only the allow decision
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	ok, _, _ := r.CanFetch(ctx, rawURL)
	return ok
}

// Clear forgets every cached policy
func (r *RobotsChecker) Clear() {
	r.policies.Flush()
}

func (r *RobotsChecker) policy(ctx context.Context, origin string) robotsPolicy {
	if v, ok := r.policies.Get(origin); ok {
		return v.(robotsPolicy)
	}

	data, err := r.fetch(ctx, origin)
	if err != nil {
		// a cancelled request says nothing about the origin
		if ctx.Err() == nil {
			r.policies.Set(origin, robotsPolicy{}, unreachableTTL)
		}
		return robotsPolicy{}
	}
	p := robotsPolicy{data: data}
	r.policies.Set(origin, p, gocache.DefaultExpiration)
	return p
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	// robotstxt maps 4xx to allow-all and 5xx to disallow-all
	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}

// NormalizeUserAgent reduces "Name/1.0 (+info)" to the "Name" token robots.txt groups match on
func NormalizeUserAgent(ua string) string {
	token, _, _ := strings.Cut(strings.TrimSpace(ua), " ")
	token, _, _ = strings.Cut(token, "/")
	return token
}
