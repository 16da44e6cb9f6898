package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/perspecta/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func load(t *testing.T, cfgFile string) *model.Config {
	t.Helper()
	v := viper.New()
	require.NoError(t, Setup(v, cfgFile))
	cfg, err := Read(v)
	require.NoError(t, err)
	return cfg
}

func TestRead_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := load(t, writeConfig(t, "{}\n"))

	def := model.DefaultConfig()
	assert.Equal(t, def.Server.Port, cfg.Server.Port)
	assert.Equal(t, def.Server.RequestTimeout, cfg.Server.RequestTimeout)
	assert.Equal(t, def.Pipeline, cfg.Pipeline)
	assert.Equal(t, def.Cache.SearchTTL, cfg.Cache.SearchTTL)
	assert.Equal(t, def.Search.Elasticsearch.Addresses, cfg.Search.Elasticsearch.Addresses)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, model.DefaultGeminiModel, cfg.LLM.Model)
}

func TestRead_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
  request_timeout: 90s
pipeline:
  top_k: 40
  threshold: 0.25
search:
  backend: elasticsearch
  extra_domains: [example.org]
`)
	cfg := load(t, path)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 40, cfg.Pipeline.TopK)
	assert.InDelta(t, 0.25, cfg.Pipeline.Threshold, 1e-9)
	assert.Equal(t, model.DefaultTopPerBucket, cfg.Pipeline.TopPerBucket)
	assert.Equal(t, "elasticsearch", cfg.Search.Backend)
	assert.Equal(t, []string{"example.org"}, cfg.Search.ExtraDomains)
}

func TestRead_PrefixedEnvBeatsFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	t.Setenv("PERSPECTA_SERVER_PORT", "9090")
	t.Setenv("PERSPECTA_LLM_PROVIDER", "openai")
	t.Setenv("PERSPECTA_LLM_API_KEY", "sk-env")

	cfg := load(t, path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestRead_LegacyEnv(t *testing.T) {
	t.Setenv("PORT", "5001")
	t.Setenv("DEBUG", "True")
	t.Setenv("USE_WHITELIST_ONLY", "true")
	t.Setenv("MAX_ARTICLES_PER_QUERY", "100")
	t.Setenv("TOP_K_ARTICLES", "50")
	t.Setenv("TOP_N_PER_CATEGORY", "3")
	t.Setenv("MIN_SIMILARITY_THRESHOLD", "0.3")
	t.Setenv("SIMILARITY_MODEL", "sentence-transformers/all-MiniLM-L6-v2")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("SERPAPI_KEY", "s-key")

	cfg := load(t, writeConfig(t, "{}\n"))

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.True(t, cfg.Search.WhitelistOnly)
	assert.Equal(t, 100, cfg.Search.MaxRecords)
	assert.Equal(t, 50, cfg.Pipeline.TopK)
	assert.Equal(t, 3, cfg.Pipeline.TopPerBucket)
	assert.InDelta(t, 0.3, cfg.Pipeline.Threshold, 1e-9)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", cfg.Embedding.Model)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "s-key", cfg.Search.SerpAPI.APIKey)
}

func TestRead_PrefixedEnvBeatsLegacy(t *testing.T) {
	t.Setenv("PORT", "5001")
	t.Setenv("PERSPECTA_SERVER_PORT", "6000")

	cfg := load(t, writeConfig(t, "{}\n"))
	assert.Equal(t, 6000, cfg.Server.Port)
}

func TestRead_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	require.NoError(t, Setup(v, filepath.Join(t.TempDir(), "absent.yaml")))
	_, err := Read(v)
	assert.Error(t, err)
}

func TestRead_NoFileFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	v := viper.New()
	require.NoError(t, Setup(v, ""))
	cfg, err := Read(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().Server.Port, cfg.Server.Port)
	assert.Empty(t, v.ConfigFileUsed())
}

func TestLoad_Validates(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	v := viper.New()
	require.NoError(t, Setup(v, writeConfig(t, "{}\n")))
	_, err := Load(v)
	assert.ErrorIs(t, err, model.ErrMissingCredential)

	t.Setenv("GEMINI_API_KEY", "g-key")
	v = viper.New()
	require.NoError(t, Setup(v, writeConfig(t, "{}\n")))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
}
