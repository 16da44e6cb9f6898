package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/ppiankov/perspecta/internal/model"
)

// ElasticsearchBackend searches an index of previously crawled articles
type ElasticsearchBackend struct {
	client *es.Client
	index  string
	size   int
}

type esArticle struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	PublishedAt   string `json:"published_at"`
	SourceCountry string `json:"source_country"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string    `json:"_id"`
			Source esArticle `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// NewElasticsearchBackend creates the backend. Connectivity is not checked here;
// the first search reports an unreachable cluster.
func NewElasticsearchBackend(cfg model.ElasticsearchConfig, size int, transport http.RoundTripper) (*ElasticsearchBackend, error) {
	addresses := make([]string, 0, len(cfg.Addresses))
	for _, addr := range cfg.Addresses {
		if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
			addr = "http://" + addr
		}
		addresses = append(addresses, addr)
	}

	clientConfig := es.Config{
		Addresses:  addresses,
		MaxRetries: cfg.MaxRetries,
		Transport:  transport,
	}
	if cfg.Username != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = "articles"
	}
	if size <= 0 {
		size = model.DefaultMaxRecords
	}
	return &ElasticsearchBackend{client: client, index: index, size: size}, nil
}

func (b *ElasticsearchBackend) Name() string { return OriginElasticsearch }

// Search maps the structured query onto a bool query
func (b *ElasticsearchBackend) Search(ctx context.Context, q model.Query) ([]model.Document, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(BuildQuery(q, b.size)); err != nil {
		return nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(b.index),
		b.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, statusError("elasticsearch", res.StatusCode, body)
	}

	var data esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode response: %w", err)
	}

	docs := make([]model.Document, 0, len(data.Hits.Hits))
	for _, hit := range data.Hits.Hits {
		a := hit.Source
		source := a.Source
		if source == "" {
			source = hostSource(a.URL)
		}
		docs = append(docs, model.Document{
			Title:       a.Title,
			Body:        a.Body,
			URL:         a.URL,
			Source:      source,
			PublishedAt: a.PublishedAt,
			Origin:      OriginElasticsearch,
		})
	}
	return docs, nil
}

// BuildQuery translates a structured query into an Elasticsearch request body
func BuildQuery(q model.Query, size int) map[string]any {
	var must []any
	var filter []any

	if text := q.Text(); text != "" {
		must = append(must, map[string]any{
			"query_string": map[string]any{
				"query":            text,
				"fields":           []string{"title^2", "body"},
				"default_operator": "AND",
			},
		})
	} else {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}

	if country := q.Get(model.ParamSourceCountry); country != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"source_country": strings.ToUpper(country)},
		})
	}

	dateRange := map[string]any{}
	if start := q.Get(model.ParamStartDateTime); start != "" {
		dateRange["gte"] = start
	}
	if end := q.Get(model.ParamEndDateTime); end != "" {
		dateRange["lte"] = end
	}
	if len(dateRange) > 0 {
		dateRange["format"] = "yyyyMMddHHmmss"
		filter = append(filter, map[string]any{
			"range": map[string]any{"published_at": dateRange},
		})
	}

	boolQuery := map[string]any{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]any{
		"size":  size,
		"query": map[string]any{"bool": boolQuery},
		"sort":  []any{"_score", map[string]any{"published_at": map[string]any{"order": "desc", "unmapped_type": "date"}}},
	}
}
