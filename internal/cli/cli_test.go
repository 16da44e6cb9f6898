package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ppiankov/perspecta/internal/config"
	"github.com/ppiankov/perspecta/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The central bank held rates", "the-central-bank-held-rates"},
		{"  ../../etc/passwd  ", "etc-passwd"},
		{"Who won? A: \"them\" | <us>", "who-won-a-them-us"},
		{"Élection présidentielle 2024", "élection-présidentielle-2024"},
		{"???", "claim"},
		{"", "claim"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	got := sanitizeFilename(strings.Repeat("word ", 40))
	if n := len([]rune(got)); n > maxFilenameRunes {
		t.Errorf("expected at most %d runes, got %d", maxFilenameRunes, n)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("expected no trailing dash, got %q", got)
	}
}

func TestMaskSecrets(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "secret"
	cfg.Search.SerpAPI.APIKey = "serp"

	out := maskSecrets(cfg)
	if out.LLM.APIKey != masked || out.Search.SerpAPI.APIKey != masked {
		t.Errorf("expected masked keys, got %q and %q", out.LLM.APIKey, out.Search.SerpAPI.APIKey)
	}
	if out.Embedding.APIKey != "" {
		t.Errorf("expected empty key to stay empty, got %q", out.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Error("maskSecrets modified its input")
	}
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Perspecta Configuration File") {
		t.Errorf("missing header:\n%s", data)
	}

	v := viper.New()
	if err := config.Setup(v, path); err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg, err := config.Read(v)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	def := model.DefaultConfig()
	if cfg.Cache.EmbeddingTTL != def.Cache.EmbeddingTTL || cfg.Server.WriteTimeout != def.Server.WriteTimeout {
		t.Errorf("durations did not round-trip: %v %v", cfg.Cache.EmbeddingTTL, cfg.Server.WriteTimeout)
	}
	if cfg.Pipeline != def.Pipeline {
		t.Errorf("pipeline did not round-trip: %+v", cfg.Pipeline)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "check", "batch", "models", "config", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
