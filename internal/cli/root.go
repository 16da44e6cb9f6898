package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/perspecta/internal/config"
	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/model"
)

// version is overridden at build time with -ldflags "-X .../internal/cli.version=..."
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "perspecta",
	Short: "Perspecta - news context for a claim across editorial perspectives",
	Long: `Perspecta gathers news coverage of a claim and shows how outlets with
different editorial stances report on it.

It diversifies the claim into search queries, retrieves articles, ranks them
by semantic similarity, groups outlets into perspective buckets and writes a
summary built only from the selected articles.

Perspecta does not decide whether a claim is true. It shows who reports
what, and how.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("perspecta v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.perspecta/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Pipeline knobs, shared by serve, check and batch
	flags.String("provider", "", "generation provider (gemini, openai, anthropic, ollama)")
	flags.String("model", "", "generation model (empty for the provider default)")
	flags.Int("queries", model.DefaultQueryCount, "number of diversified search queries (N)")
	flags.Int("top-k", model.DefaultTopK, "global ranking cap (K)")
	flags.Int("top-per-bucket", model.DefaultTopPerBucket, "articles kept per perspective (M)")
	flags.Float64("threshold", model.DefaultThreshold, "minimum similarity (T)")
	flags.Bool("whitelist-only", false, "keep only articles from whitelisted domains")

	bindFlag("llm.provider", "provider")
	bindFlag("llm.model", "model")
	bindFlag("pipeline.query_count", "queries")
	bindFlag("pipeline.top_k", "top-k")
	bindFlag("pipeline.top_per_bucket", "top-per-bucket")
	bindFlag("pipeline.threshold", "threshold")
	bindFlag("search.whitelist_only", "whitelist-only")

	rootCmd.AddCommand(versionCmd)
}

func bindFlag(key, name string) {
	_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
}

// initConfig loads .env and prepares viper for the config file and environment
func initConfig() {
	_ = godotenv.Load()

	if err := config.Setup(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing configuration: %v\n", err)
	}
}

// loadConfig reads the merged configuration. validate rejects missing
// credentials and out-of-range knobs.
func loadConfig(validate bool) (*model.Config, error) {
	read := config.Read
	if validate {
		read = config.Load
	}
	cfg, err := read(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if verbose && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) (logger.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:       level,
		Format:      cfg.Logging.Format,
		Development: cfg.Server.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}
