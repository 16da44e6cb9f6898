package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/pipeline"
	"github.com/ppiankov/perspecta/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the pipeline over HTTP:

  POST /api/detect   {"query": "<claim>"}
  GET  /api/health
  GET  /metrics      Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.

Example:
  perspecta serve
  perspecta serve --port 8080 --whitelist-only`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 5000, "listen port")
	serveCmd.Flags().Bool("debug", false, "gin debug mode and development logging")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.debug", serveCmd.Flags().Lookup("debug"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m := metrics.New()
	p, err := pipeline.Build(cfg, log, m)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	log.Info("Perspecta API starting",
		logger.String("version", version),
		logger.Int("port", cfg.Server.Port),
	)
	return server.New(cfg.Server, p, log, m).Run(cmd.Context())
}
