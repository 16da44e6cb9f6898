package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/pipeline"
	"github.com/ppiankov/perspecta/internal/report"
)

var (
	outJSON      string
	outMD        string
	outHTML      string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Check a single claim and print the summary",
	Long: `Check runs the full pipeline for one claim:
- Diversify the claim into search queries
- Retrieve and deduplicate articles
- Rank articles by similarity to the claim
- Group outlets into perspective buckets
- Summarize coverage across perspectives

Example:
  perspecta check "The central bank held interest rates"
  perspecta check "..." --json report.json --md report.md --html report.html
  perspecta check "..." --top-k 100 --threshold 0.2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON report path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown report path (optional)")
	checkCmd.Flags().StringVar(&outHTML, "html", "", "output HTML report path (optional)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 4*time.Minute, "overall check timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	claim := strings.Join(args, " ")

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p, err := pipeline.Build(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", claim)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", checkTimeout)
	}

	outcome, err := p.Check(ctx, claim)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if verbose {
		printOutcomeStats(outcome)
	}

	switch outcome.Status {
	case model.StatusSuccess:
		fmt.Println(outcome.Summary)
	default:
		fmt.Println(outcome.Message)
		if outcome.Details != "" {
			fmt.Println(outcome.Details)
		}
	}

	if err := writeReports(report.FromOutcome(outcome)); err != nil {
		return err
	}

	if outcome.Status == model.StatusError {
		return fmt.Errorf("check ended with status %s", outcome.Status)
	}
	return nil
}

func printOutcomeStats(o *model.Outcome) {
	fmt.Fprintf(os.Stderr, "✓ %d queries\n", len(o.Queries))
	fmt.Fprintf(os.Stderr, "✓ %d articles retrieved, %d ranked\n", o.Retrieved, len(o.Ranked))
	for _, b := range o.Buckets {
		fmt.Fprintf(os.Stderr, "✓ %-12s %d assigned, %d selected\n", b.Label, b.Assigned, len(b.Documents))
	}
	if len(o.Fallbacks) > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  degraded: %s\n", strings.Join(o.Fallbacks, ", "))
	}
	for _, s := range o.Stages {
		fmt.Fprintf(os.Stderr, "   %-12s %v\n", s.Stage, s.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(os.Stderr)
}

func writeReports(r *report.Report) error {
	if outJSON != "" {
		if err := report.WriteJSON(r, outJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	if outMD != "" {
		if err := report.WriteMarkdown(r, outMD); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}
	if outHTML != "" {
		if err := report.WriteHTML(r, outHTML); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ HTML report: %s\n", outHTML)
	}
	return nil
}
