package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/perspecta/internal/llm"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models of the configured generation provider",
	Long: `List the models the configured generation provider offers.

Example:
  perspecta models
  perspecta models --provider ollama`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(*cfg))
	if err != nil {
		return fmt.Errorf("generation provider: %w", err)
	}

	lister, ok := provider.(llm.ModelLister)
	if !ok {
		return fmt.Errorf("provider %s cannot list models", provider.Name())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	for _, m := range models {
		marker := " "
		if m == cfg.LLM.Model {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, m)
	}
	return nil
}
