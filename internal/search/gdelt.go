package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/perspecta/internal/model"
)

const defaultGDELTBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"

// GDELTBackend queries the GDELT 2.0 DOC API in article-list mode
type GDELTBackend struct {
	baseURL    string
	maxRecords int
	userAgent  string
	client     *http.Client
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	SeenDate   string `json:"seendate"`
	SeenText   string `json:"seentext"`
	SourceName string `json:"sourcename"`
	Domain     string `json:"domain"`
	Language   string `json:"language"`
}

// NewGDELTBackend creates a GDELT backend. maxRecords <= 0 uses the API maximum of 250.
func NewGDELTBackend(baseURL string, maxRecords int, userAgent string, client *http.Client) *GDELTBackend {
	if baseURL == "" {
		baseURL = defaultGDELTBaseURL
	}
	if maxRecords <= 0 {
		maxRecords = model.DefaultMaxRecords
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GDELTBackend{
		baseURL:    baseURL,
		maxRecords: maxRecords,
		userAgent:  userAgent,
		client:     client,
	}
}

func (b *GDELTBackend) Name() string { return OriginGDELT }

// Search sends the query parameters after format and maxrecords
func (b *GDELTBackend) Search(ctx context.Context, q model.Query) ([]model.Document, error) {
	params := []model.Param{
		{Key: "format", Value: "json"},
		{Key: "maxrecords", Value: strconv.Itoa(b.maxRecords)},
	}
	for _, p := range q.Params {
		if p.Key == "format" || p.Key == "maxrecords" {
			continue
		}
		params = append(params, p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+encodeParams(params), nil)
	if err != nil {
		return nil, fmt.Errorf("gdelt: create request: %w", err)
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdelt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("gdelt: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("gdelt", resp.StatusCode, body)
	}

	// No matches come back as an empty body or "{}"
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var data gdeltResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("gdelt: decode response: %w", err)
	}

	docs := make([]model.Document, 0, len(data.Articles))
	for _, a := range data.Articles {
		docs = append(docs, normalizeGDELT(a))
	}
	return docs, nil
}

func normalizeGDELT(a gdeltArticle) model.Document {
	source := a.SourceName
	if source == "" {
		source = strings.TrimPrefix(a.Domain, "www.")
	}
	if source == "" {
		source = hostSource(a.URL)
	}
	return model.Document{
		Title:       a.Title,
		Body:        a.SeenText,
		URL:         a.URL,
		Source:      source,
		PublishedAt: FormatTimestamp(a.SeenDate),
		Origin:      OriginGDELT,
	}
}

// FormatTimestamp renders a GDELT seendate like 20250829T173000Z as
// "Aug 29, 2025 17:30". Other formats pass through unchanged.
func FormatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse("20060102T150405Z", ts)
	if err != nil {
		return ts
	}
	return t.Format("Jan 2, 2006 15:04")
}
