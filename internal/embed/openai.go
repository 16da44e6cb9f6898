package embed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/model"
)

// OpenAIEmbedder uses the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
}

// NewOpenAIEmbedder creates an OpenAI embedder
func NewOpenAIEmbedder(apiKey, baseURL, modelName string, batchSize int, httpClient *http.Client) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for embeddings")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if modelName == "" || modelName == model.DefaultEmbeddingModel {
		modelName = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     modelName,
		batchSize: batchSize,
	}, nil
}

func (e *OpenAIEmbedder) Name() string  { return "openai" }
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed calls CreateEmbeddings in batches and reorders by returned index
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for _, b := range batches(len(texts), e.batchSize) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[b[0]:b[1]],
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, llm.ClassifyOpenAIError(e.Name(), err)
		}
		if err := checkCount(e.Name(), len(resp.Data), b[1]-b[0]); err != nil {
			return nil, &llm.Error{Provider: e.Name(), Kind: llm.KindMalformed, Err: err}
		}
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= b[1]-b[0] {
				return nil, &llm.Error{Provider: e.Name(), Kind: llm.KindMalformed, Err: fmt.Errorf("embedding index %d out of range", d.Index)}
			}
			out[b[0]+d.Index] = d.Embedding
		}
	}
	return out, nil
}
