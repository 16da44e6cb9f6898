// Package config loads the perspecta configuration from defaults, the YAML
// config file, PERSPECTA_* variables and the legacy environment names.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/perspecta/internal/model"
)

// EnvPrefix is the prefix of environment overrides (PERSPECTA_SERVER_PORT)
const EnvPrefix = "PERSPECTA"

// legacyEnv maps config keys to the environment names of the original deployment
var legacyEnv = map[string]string{
	"server.port":             "PORT",
	"server.debug":            "DEBUG",
	"search.whitelist_only":   "USE_WHITELIST_ONLY",
	"search.max_records":      "MAX_ARTICLES_PER_QUERY",
	"pipeline.top_k":          "TOP_K_ARTICLES",
	"pipeline.top_per_bucket": "TOP_N_PER_CATEGORY",
	"pipeline.threshold":      "MIN_SIMILARITY_THRESHOLD",
	"embedding.model":         "SIMILARITY_MODEL",
	"logging.level":           "LOG_LEVEL",
}

// Keys left out of the marshaled defaults by omitempty that still need env lookup
var optionalKeys = []string{
	"llm.model",
	"llm.api_key",
	"llm.base_url",
	"embedding.api_key",
	"search.base_url",
	"search.extra_domains",
	"search.serpapi.api_key",
	"search.serpapi.base_url",
	"search.elasticsearch.username",
	"search.elasticsearch.password",
	"cache.redis.password",
	"http.http_proxy",
	"http.https_proxy",
	"http.no_proxy",
}

// Default returns the built-in configuration
func Default() *model.Config {
	return model.DefaultConfig()
}

// Setup configures v for the env prefix, the key replacer, the built-in
// defaults and the legacy environment names. cfgFile, when set, is the
// explicit config path; otherwise ~/.perspecta/config.yaml and ./config.yaml
// are searched.
func Setup(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.perspecta")
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v); err != nil {
		return err
	}
	return bindLegacyEnv(v)
}

func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range optionalKeys {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, name := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// Read reads the config file, if any, and decodes the merged settings.
// Credentials are filled from the provider environment variables. The
// result is not validated.
func Read(v *viper.Viper) (*model.Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ResolveCredentials(os.Getenv)
	return cfg, nil
}

// Load reads and validates the configuration
func Load(v *viper.Viper) (*model.Config, error) {
	cfg, err := Read(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
