package embed

import (
	"context"
	"net/http"
	"strings"

	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/model"
)

const defaultTEIBaseURL = "http://localhost:8080"

// TEIEmbedder calls a Hugging Face text-embeddings-inference server.
// The server is started with the model baked in, so Model is informational.
type TEIEmbedder struct {
	baseURL   string
	model     string
	batchSize int
	client    *http.Client
}

type teiRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// NewTEIEmbedder creates a TEI embedder
func NewTEIEmbedder(baseURL, modelName string, batchSize int, client *http.Client) *TEIEmbedder {
	if baseURL == "" {
		baseURL = defaultTEIBaseURL
	}
	if modelName == "" {
		modelName = model.DefaultEmbeddingModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TEIEmbedder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     modelName,
		batchSize: batchSize,
		client:    client,
	}
}

func (e *TEIEmbedder) Name() string  { return "tei" }
func (e *TEIEmbedder) Model() string { return e.model }

// Embed posts texts to /embed in batches
func (e *TEIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, b := range batches(len(texts), e.batchSize) {
		var vectors [][]float32
		req := teiRequest{Inputs: texts[b[0]:b[1]], Truncate: true}
		if err := llm.DoJSON(ctx, e.client, e.Name(), http.MethodPost, e.baseURL+"/embed", nil, req, &vectors, decodeTEIError); err != nil {
			return nil, err
		}
		if err := checkCount(e.Name(), len(vectors), b[1]-b[0]); err != nil {
			return nil, &llm.Error{Provider: e.Name(), Kind: llm.KindMalformed, Err: err}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func decodeTEIError(status int, body []byte) (llm.Kind, string) {
	// TEI answers 413 for oversized batches and 424 when the model errors
	if status == http.StatusRequestEntityTooLarge || status == http.StatusFailedDependency {
		return llm.KindMalformed, strings.TrimSpace(string(body))
	}
	return "", ""
}
