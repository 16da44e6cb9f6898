package llm

import (
	"context"
)

// Provider defines the interface for text generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate returns the model's text for a prompt. Errors are *Error values
	// carrying a Kind, so callers pick fallbacks without inspecting messages.
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ModelLister is implemented by providers that can enumerate their models
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Request is a single-turn generation request
type Request struct {
	Prompt      string
	System      string  // Optional system instruction
	Temperature float64 // 0 is a valid temperature and is sent as such
	MaxTokens   int     // 0 uses the provider config
	Model       string  // Empty uses the provider config
}

// Response contains the generated text
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific, empty for the provider default)
	Model string

	APIKey string

	// BaseURL for custom endpoints (Ollama, proxies, tests)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "gemini",
		Timeout:   60,
		MaxTokens: 4096,
	}
}

func (c Config) model(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4096
}
