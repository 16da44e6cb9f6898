package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete perspecta configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	Debug           bool          `yaml:"debug" mapstructure:"debug"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"` // Deadline for one whole pipeline run
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LLMConfig configures the generation provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`       // Empty means provider default
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingConfig configures the similarity engine
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // tei, ollama, openai
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// SearchConfig configures the article-search backends
type SearchConfig struct {
	Backend           string              `yaml:"backend" mapstructure:"backend"` // gdelt, elasticsearch
	BaseURL           string              `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxRecords        int                 `yaml:"max_records" mapstructure:"max_records"`
	Timeout           time.Duration       `yaml:"timeout" mapstructure:"timeout"` // Per call
	Concurrency       int                 `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64             `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int                 `yaml:"burst" mapstructure:"burst"`
	WhitelistOnly     bool                `yaml:"whitelist_only" mapstructure:"whitelist_only"`
	ExtraDomains      []string            `yaml:"extra_domains,omitempty" mapstructure:"extra_domains"`
	GoogleSupplement  bool                `yaml:"google_supplement" mapstructure:"google_supplement"`
	SerpAPI           SerpAPIConfig       `yaml:"serpapi" mapstructure:"serpapi"`
	Elasticsearch     ElasticsearchConfig `yaml:"elasticsearch" mapstructure:"elasticsearch"`
}

// SerpAPIConfig configures the supplementary Google search
type SerpAPIConfig struct {
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Results int    `yaml:"results" mapstructure:"results"`
}

// ElasticsearchConfig configures the article index backend
type ElasticsearchConfig struct {
	Addresses  []string `yaml:"addresses" mapstructure:"addresses"`
	Index      string   `yaml:"index" mapstructure:"index"`
	Username   string   `yaml:"username,omitempty" mapstructure:"username"`
	Password   string   `yaml:"password,omitempty" mapstructure:"password"`
	MaxRetries int      `yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig holds the ranking and fan-out knobs
type PipelineConfig struct {
	QueryCount        int     `yaml:"query_count" mapstructure:"query_count"`                 // N diversified queries
	TopK              int     `yaml:"top_k" mapstructure:"top_k"`                             // K global ranking cap
	TopPerBucket      int     `yaml:"top_per_bucket" mapstructure:"top_per_bucket"`           // M per-bucket cap
	Threshold         float64 `yaml:"threshold" mapstructure:"threshold"`                     // T minimum similarity
	MaxDigestArticles int     `yaml:"max_digest_articles" mapstructure:"max_digest_articles"` // Soft cap across buckets
}

// CacheConfig configures result caching
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend      string        `yaml:"backend" mapstructure:"backend"` // memory, layered, redis
	Dir          string        `yaml:"dir" mapstructure:"dir"`
	SearchTTL    time.Duration `yaml:"search_ttl" mapstructure:"search_ttl"` // 0 keeps every request on fresh results
	EmbeddingTTL time.Duration `yaml:"embedding_ttl" mapstructure:"embedding_ttl"`
	PageTTL      time.Duration `yaml:"page_ttl" mapstructure:"page_ttl"`
	Redis        RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string `yaml:"address" mapstructure:"address"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// EnrichConfig configures full-text fetching for selected documents
type EnrichConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxChars          int           `yaml:"max_chars" mapstructure:"max_chars"`
	MaxBytes          int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// Defaults shared with the components that apply them
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultEmbeddingModel = "intfloat/multilingual-e5-base"
	DefaultQueryCount     = 10
	DefaultTopK           = 250
	DefaultTopPerBucket   = 5
	DefaultThreshold      = 0.1
	DefaultDigestArticles = 30
	DefaultMaxRecords     = 250
)

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  4 * time.Minute,
			CORSOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			Timeout:   60,
			MaxTokens: 4096,
		},
		Embedding: EmbeddingConfig{
			Provider:  "tei",
			Model:     DefaultEmbeddingModel,
			BaseURL:   "http://localhost:8080",
			Timeout:   60,
			BatchSize: 64,
		},
		Search: SearchConfig{
			Backend:           "gdelt",
			MaxRecords:        DefaultMaxRecords,
			Timeout:           30 * time.Second,
			Concurrency:       4,
			RequestsPerSecond: 2,
			Burst:             2,
			SerpAPI: SerpAPIConfig{
				Results: 25,
			},
			Elasticsearch: ElasticsearchConfig{
				Addresses:  []string{"http://localhost:9200"},
				Index:      "articles",
				MaxRetries: 3,
			},
		},
		Pipeline: PipelineConfig{
			QueryCount:        DefaultQueryCount,
			TopK:              DefaultTopK,
			TopPerBucket:      DefaultTopPerBucket,
			Threshold:         DefaultThreshold,
			MaxDigestArticles: DefaultDigestArticles,
		},
		Cache: CacheConfig{
			Enabled:      true,
			Backend:      "memory",
			Dir:          ".perspecta-cache",
			SearchTTL:    0,
			EmbeddingTTL: 24 * time.Hour,
			PageTTL:      6 * time.Hour,
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
		},
		Enrich: EnrichConfig{
			MaxChars:          1500,
			MaxBytes:          2_000_000,
			Timeout:           10 * time.Second,
			Workers:           4,
			RequestsPerSecond: 1,
			RespectRobots:     true,
		},
		HTTP: HTTPConfig{
			UserAgent: "Perspecta/0.1 (+https://github.com/ppiankov/perspecta)",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Configuration errors
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ResolveCredentials fills provider credentials from the conventional
// environment variables when the config does not carry them
func (c *Config) ResolveCredentials(getenv func(string) string) {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "google":
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = getenv("GEMINI_API_KEY")
		}
		if c.LLM.Model == "" {
			c.LLM.Model = getenv("GEMINI_MODEL")
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultGeminiModel
		}
	case "openai":
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case "openai":
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if base := getenv("OLLAMA_BASE_URL"); base != "" && c.Embedding.BaseURL == DefaultConfig().Embedding.BaseURL {
			c.Embedding.BaseURL = base
		}
	}

	if c.Search.SerpAPI.APIKey == "" {
		c.Search.SerpAPI.APIKey = getenv("SERPAPI_KEY")
	}
}

// Validate checks the configuration. Missing credentials are fatal at startup.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "google", "openai", "anthropic", "claude":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: API key for LLM provider %q", ErrMissingCredential, c.LLM.Provider)
		}
	case "ollama":
		if c.LLM.Model == "" {
			return fmt.Errorf("%w: ollama requires llm.model", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown LLM provider %q", ErrInvalidConfig, c.LLM.Provider)
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("%w: API key for embedding provider openai", ErrMissingCredential)
		}
	case "tei", "ollama":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding.model is required", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Search.Backend) {
	case "", "gdelt", "elasticsearch", "es":
	default:
		return fmt.Errorf("%w: unknown search backend %q", ErrInvalidConfig, c.Search.Backend)
	}
	if c.Search.GoogleSupplement && c.Search.SerpAPI.APIKey == "" {
		return fmt.Errorf("%w: SERPAPI_KEY is required when search.google_supplement is enabled", ErrMissingCredential)
	}

	p := c.Pipeline
	if p.QueryCount <= 0 || p.TopK <= 0 || p.TopPerBucket <= 0 || p.MaxDigestArticles <= 0 {
		return fmt.Errorf("%w: pipeline counts must be positive", ErrInvalidConfig)
	}
	if p.Threshold < -1 || p.Threshold > 1 {
		return fmt.Errorf("%w: pipeline.threshold must be within [-1, 1], got %v", ErrInvalidConfig, p.Threshold)
	}

	if c.Cache.Enabled {
		switch strings.ToLower(c.Cache.Backend) {
		case "", "memory", "layered", "redis":
		default:
			return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
		}
	}

	return nil
}
