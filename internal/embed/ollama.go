package embed

import (
	"context"
	"net/http"
	"strings"

	"github.com/ppiankov/perspecta/internal/llm"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaEmbedder generates embeddings via the Ollama API
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates a new Ollama embedder
func NewOllamaEmbedder(baseURL, modelName string, client *http.Client) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   modelName,
		client:  client,
	}
}

func (e *OllamaEmbedder) Name() string  { return "ollama" }
func (e *OllamaEmbedder) Model() string { return e.model }

// Embed generates embeddings for the given texts
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var result ollamaEmbedResponse
	req := ollamaEmbedRequest{Model: e.model, Input: texts}
	if err := llm.DoJSON(ctx, e.client, e.Name(), http.MethodPost, e.baseURL+"/api/embed", nil, req, &result, nil); err != nil {
		return nil, err
	}
	if err := checkCount(e.Name(), len(result.Embeddings), len(texts)); err != nil {
		return nil, &llm.Error{Provider: e.Name(), Kind: llm.KindMalformed, Err: err}
	}
	return result.Embeddings, nil
}
