package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/perspecta/internal/model"
)

type constructor func(Config) (Provider, error)

var constructors = map[string]constructor{
	"gemini":    func(c Config) (Provider, error) { return NewGeminiProvider(c) },
	"openai":    func(c Config) (Provider, error) { return NewOpenAIProvider(c) },
	"anthropic": func(c Config) (Provider, error) { return NewAnthropicProvider(c) },
	"ollama":    func(c Config) (Provider, error) { return NewOllamaProvider(c) },
}

var aliases = map[string]string{
	"":       "gemini",
	"google": "gemini",
	"claude": "anthropic",
}

// Providers lists the canonical provider names
func Providers() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider builds the generation provider named by config.Provider.
// An empty name selects gemini.
func NewProvider(config Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	build, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: %s)", config.Provider, strings.Join(Providers(), ", "))
	}
	return build(config)
}

// ConfigFromModel picks the generation settings and proxy settings out of cfg
func ConfigFromModel(cfg model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}
