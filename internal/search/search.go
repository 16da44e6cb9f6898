// Package search adapts article-search services to a common backend interface.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/perspecta/internal/model"
)

// Backend searches one article source with a structured query
type Backend interface {
	Name() string
	Search(ctx context.Context, q model.Query) ([]model.Document, error)
}

// Document origins
const (
	OriginGDELT         = "gdelt"
	OriginGoogle        = "google_search"
	OriginElasticsearch = "elasticsearch"
)

// ErrStatus is wrapped by backends that received a non-success HTTP status
var ErrStatus = errors.New("unexpected HTTP status")

func statusError(backend string, code int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("%s: %w %d: %s", backend, ErrStatus, code, snippet)
}

// hostSource derives a source name from a URL host without "www."
func hostSource(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// encodeParams percent-encodes key=value pairs in order, spaces as %20
func encodeParams(params []model.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Key+"="+strings.ReplaceAll(url.QueryEscape(p.Value), "+", "%20"))
	}
	return strings.Join(parts, "&")
}
