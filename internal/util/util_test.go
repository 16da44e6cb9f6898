package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Perspecta/0.1 (+https://example.com)", "Perspecta"},
		{"curl", "curl"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRobotsChecker_DisallowAndCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: Perspecta\nDisallow: /private\nCrawl-delay: 2\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker("Perspecta/0.1", time.Second, nil)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if !allowed {
		t.Error("expected /news/story to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	if checker.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("expected /private/page to be disallowed")
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", n)
	}

	checker.Clear()
	checker.IsAllowed(ctx, server.URL+"/")
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("expected refetch after Clear, got %d fetches", n)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("Perspecta", time.Second, nil)
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("expected missing robots.txt to allow")
	}
}

func TestRobotsChecker_UnsupportedScheme(t *testing.T) {
	checker := NewRobotsChecker("Perspecta", time.Second, nil)
	if _, _, err := checker.CanFetch(context.Background(), "ftp://example.com/file"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestRobotsChecker_ServerErrorDisallows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Perspecta", time.Second, nil)
	if checker.IsAllowed(context.Background(), server.URL+"/story") {
		t.Error("expected 5xx robots.txt to disallow")
	}
}

func TestRobotsChecker_QueryRules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /search?\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker("Perspecta", time.Second, nil)
	ctx := context.Background()
	if checker.IsAllowed(ctx, server.URL+"/search?q=x") {
		t.Error("expected query URL to be disallowed")
	}
	if !checker.IsAllowed(ctx, server.URL+"/searching") {
		t.Error("expected /searching to be allowed")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	checker := NewRobotsChecker("Perspecta", 200*time.Millisecond, nil)
	allowed, delay, err := checker.CanFetch(context.Background(), addr+"/x")
	if err != nil || !allowed || delay != 0 {
		t.Errorf("CanFetch = %v, %v, %v; want allowed with no delay", allowed, delay, err)
	}
	if _, ok := checker.policies.Get(addr); !ok {
		t.Error("expected unreachable origin to be cached")
	}
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443", "internal.local")

	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	u, err := fn(req)
	if err != nil {
		t.Fatalf("proxy func: %v", err)
	}
	if u == nil || u.Host != "secure-proxy:8443" {
		t.Errorf("expected https proxy, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	u, _ = fn(req)
	if u == nil || u.Host != "proxy:8080" {
		t.Errorf("expected http proxy, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://api.internal.local/", nil)
	u, _ = fn(req)
	if u != nil {
		t.Errorf("expected no proxy for NO_PROXY host, got %v", u)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(3*time.Second, ProxyConfig{})
	if c.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", c.Timeout)
	}
	if c.Transport == nil {
		t.Error("expected transport to be set")
	}
}
