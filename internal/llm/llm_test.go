package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/ppiankov/perspecta/internal/model"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusNotFound, KindNotFound},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusBadGateway, KindUnavailable},
		{http.StatusRequestTimeout, KindUnavailable},
		{http.StatusBadRequest, KindMalformed},
		{http.StatusOK, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindForStatus(tt.code); got != tt.want {
			t.Errorf("KindForStatus(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != "" {
		t.Error("expected empty kind for nil")
	}
	wrapped := fmt.Errorf("stage: %w", &Error{Provider: "gemini", Kind: KindAuth, Err: errors.New("bad key")})
	if KindOf(wrapped) != KindAuth {
		t.Errorf("expected auth through wrapping, got %s", KindOf(wrapped))
	}
	if KindOf(context.Canceled) != KindCanceled {
		t.Error("expected canceled for context.Canceled")
	}
	if KindOf(errors.New("other")) != KindUnknown {
		t.Error("expected unknown for foreign error")
	}
}

func TestIsRecoverable(t *testing.T) {
	if IsRecoverable(nil) {
		t.Error("nil is not an error to recover from")
	}
	if !IsRecoverable(&Error{Kind: KindRateLimited}) {
		t.Error("rate limits should be recoverable")
	}
	if IsRecoverable(&Error{Kind: KindCanceled}) {
		t.Error("cancellation should not be recoverable")
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Provider: "openai", Kind: KindRateLimited, StatusCode: 429, Err: errors.New("slow down")}
	if got := e.Error(); got != "openai rate_limited (HTTP 429): slow down" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "Here you go:\n```json\n{\"a\": {\"b\": 2}}\n```\nThanks", `{"a": {"b": 2}}`, false},
		{"prose around", `Result: {"x": "y"} done`, `{"x": "y"}`, false},
		{"no json", "I cannot help", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		cfg     Config
		name    string
		wantErr bool
	}{
		{Config{Provider: "gemini", APIKey: "k"}, "gemini", false},
		{Config{Provider: "", APIKey: "k"}, "gemini", false},
		{Config{Provider: "OpenAI", APIKey: "k"}, "openai", false},
		{Config{Provider: "claude", APIKey: "k"}, "anthropic", false},
		{Config{Provider: "ollama", Model: "llama3"}, "ollama", false},
		{Config{Provider: "mystery"}, "", true},
		{Config{Provider: "gemini"}, "", true},
	}
	for _, tt := range tests {
		p, err := NewProvider(tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewProvider(%q) err = %v, wantErr %v", tt.cfg.Provider, err, tt.wantErr)
			continue
		}
		if err == nil && p.Name() != tt.name {
			t.Errorf("NewProvider(%q) name = %s, want %s", tt.cfg.Provider, p.Name(), tt.name)
		}
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "secret"
	cfg.HTTP.HTTPSProxy = "http://proxy:3128"

	got := ConfigFromModel(*cfg)
	if got.Provider != "gemini" || got.APIKey != "secret" || got.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("unexpected config: %+v", got)
	}
}

func TestProviders(t *testing.T) {
	got := strings.Join(Providers(), ",")
	if got != "anthropic,gemini,ollama,openai" {
		t.Errorf("Providers() = %s", got)
	}
}
