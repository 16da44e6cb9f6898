package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ppiankov/perspecta/internal/model"
)

const (
	defaultSerpAPIBaseURL = "https://serpapi.com/search"
	defaultSerpAPIResults = 25
)

// SerpAPIBackend runs Google web searches through SerpAPI
type SerpAPIBackend struct {
	apiKey  string
	baseURL string
	results int
	client  *http.Client
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
		Source  string `json:"source"`
		Date    string `json:"date"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// NewSerpAPIBackend creates a SerpAPI backend
func NewSerpAPIBackend(cfg model.SerpAPIConfig, client *http.Client) (*SerpAPIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serpapi: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSerpAPIBaseURL
	}
	results := cfg.Results
	if results <= 0 {
		results = defaultSerpAPIResults
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SerpAPIBackend{apiKey: cfg.APIKey, baseURL: baseURL, results: results, client: client}, nil
}

func (b *SerpAPIBackend) Name() string { return OriginGoogle }

// Search sends the query text as a plain Google search
func (b *SerpAPIBackend) Search(ctx context.Context, q model.Query) ([]model.Document, error) {
	text := q.Text()
	if text == "" {
		text = q.Encode()
	}
	params := []model.Param{
		{Key: "engine", Value: "google"},
		{Key: "q", Value: text},
		{Key: "api_key", Value: b.apiKey},
		{Key: "num", Value: strconv.Itoa(b.results)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+encodeParams(params), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi: create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("serpapi: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("serpapi", resp.StatusCode, body)
	}

	var data serpAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("serpapi: decode response: %w", err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", data.Error)
	}

	docs := make([]model.Document, 0, len(data.OrganicResults))
	for _, r := range data.OrganicResults {
		docs = append(docs, model.Document{
			Title:       orDefault(r.Title, "No title"),
			Body:        orDefault(r.Snippet, "No description available"),
			URL:         r.Link,
			Source:      orDefault(r.Source, "Google Search"),
			PublishedAt: r.Date,
			Origin:      OriginGoogle,
		})
	}
	return docs, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
