package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected key query param, got %q", r.URL.Query().Get("key"))
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.GenerationConfig.Temperature != 0.1 {
			t.Errorf("expected temperature 0.1, got %v", req.GenerationConfig.Temperature)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected contents: %+v", req.Contents)
		}

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "part one "}, {"text": "part two"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"totalTokenCount": 42},
			"modelVersion": "gemini-2.5-flash"
		}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), Request{Prompt: "hello", Temperature: 0.1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "part one part two" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("expected 42 tokens, got %d", resp.TokensUsed)
	}
}

func TestGeminiProvider_Generate_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{
			"invalid key",
			http.StatusBadRequest,
			`{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`,
			KindAuth,
		},
		{
			"quota",
			http.StatusTooManyRequests,
			`{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`,
			KindRateLimited,
		},
		{
			"unknown model",
			http.StatusNotFound,
			`{"error":{"code":404,"message":"models/x is not found","status":"NOT_FOUND"}}`,
			KindNotFound,
		},
		{
			"overloaded",
			http.StatusServiceUnavailable,
			`{"error":{"code":503,"message":"The model is overloaded","status":"UNAVAILABLE"}}`,
			KindUnavailable,
		},
		{
			"bad argument",
			http.StatusBadRequest,
			`{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`,
			KindMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, _ := NewGeminiProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
			_, err := provider.Generate(context.Background(), Request{Prompt: "x"})
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf = %s, want %s (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestGeminiProvider_Generate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer server.Close()

	provider, _ := NewGeminiProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	_, err := provider.Generate(context.Background(), Request{Prompt: "x"})
	if KindOf(err) != KindMalformed {
		t.Errorf("expected malformed for blocked prompt, got %v", err)
	}
}

func TestGeminiProvider_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-flash"}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-pro"}]}`))
	}))
	defer server.Close()

	provider, _ := NewGeminiProvider(Config{APIKey: "k", BaseURL: server.URL})
	models, err := provider.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "gemini-2.5-flash" || models[1] != "gemini-2.5-pro" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(Config{}); err == nil {
		t.Error("expected error without API key")
	}
}
