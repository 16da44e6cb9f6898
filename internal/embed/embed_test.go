package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/perspecta/internal/cache"
	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/model"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	assert.InDelta(t, 1/math.Sqrt2, CosineSimilarity([]float32{1, 0}, []float32{1, 1}), 1e-6)
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, batches(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, batches(3, 0))
	assert.Empty(t, batches(0, 4))
}

func teiServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			http.NotFound(w, r)
			return
		}
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float32, len(req.Inputs))
		for i, in := range req.Inputs {
			out[i] = []float32{float32(len(in)), 1}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestTEIEmbedder_Batches(t *testing.T) {
	var calls int32
	server := teiServer(t, &calls)
	defer server.Close()

	e := NewTEIEmbedder(server.URL, "", 2, server.Client())
	assert.Equal(t, model.DefaultEmbeddingModel, e.Model())

	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(3), vecs[2][0])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTEIEmbedder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewTEIEmbedder(server.URL, "", 0, nil).Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, llm.KindUnavailable, llm.KindOf(err))
}

func TestOllamaEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		out := ollamaEmbedResponse{}
		for range req.Input {
			out.Embeddings = append(out.Embeddings, []float32{0.5, 0.5})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL, "nomic-embed-text", nil)
	vecs, err := e.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": [[1, 2]]}`))
	}))
	defer server.Close()

	_, err := NewOllamaEmbedder(server.URL, "m", nil).Embed(context.Background(), []string{"a", "b"})
	assert.Equal(t, llm.KindMalformed, llm.KindOf(err))
}

func TestOpenAIEmbedder_ReordersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"model":"text-embedding-3-small"}`))
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder("key", server.URL, "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", e.Model())

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
}

func TestOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "", 0, nil)
	assert.Error(t, err)
}

func TestCachedEmbedder_OnlyEmbedsMisses(t *testing.T) {
	var calls int32
	server := teiServer(t, &calls)
	defer server.Close()

	c := cache.NewMemoryCache(time.Hour, time.Minute)
	e := NewCachedEmbedder(NewTEIEmbedder(server.URL, "", 0, nil), c, time.Hour)

	first, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	second, err := e.Embed(context.Background(), []string{"beta", "gamma", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, float32(5), second[1][0])

	_, err = e.Embed(context.Background(), []string{"alpha", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "all hits should skip the backend")
}

func TestNewCachedEmbedder_NilCache(t *testing.T) {
	inner := NewTEIEmbedder("", "", 0, nil)
	assert.Same(t, inner, NewCachedEmbedder(inner, nil, time.Hour))
}

func TestRegistry_BuildsOncePerModel(t *testing.T) {
	r := NewRegistry()
	cfg := model.EmbeddingConfig{Provider: "tei", Model: "m1", BaseURL: "http://tei:8080"}

	a, err := r.Get(cfg, model.HTTPConfig{})
	require.NoError(t, err)
	b, err := r.Get(cfg, model.HTTPConfig{})
	require.NoError(t, err)
	assert.Same(t, a, b)

	cfg.Model = "m2"
	c, err := r.Get(cfg, model.HTTPConfig{})
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(model.EmbeddingConfig{Provider: "word2vec"}, model.HTTPConfig{})
	assert.Error(t, err)

	_, err = New(model.EmbeddingConfig{Provider: "ollama"}, model.HTTPConfig{})
	assert.Error(t, err, "ollama requires a model")
}
