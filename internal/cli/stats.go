package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats <run.json>",
	Short: "Show run metadata and operation metrics for a saved run",
	Long: `Print the run metadata (run ID, timing, completeness, engines) and the
operation metrics recorded when the run was saved: search, generation,
extraction, and scrape call counts, latencies, and token usage.

Examples:
  campusintel stats example-university-run1.json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	dossier, err := store.LoadDossier(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", dossier.Meta.RunID)
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Campus:       %s\n", dossier.Campus)
	fmt.Printf("Generated:    %s\n", dossier.Meta.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Duration:     %s\n", dossier.Meta.Duration.Round(time.Second))
	fmt.Printf("Completeness: %.0f%%\n", dossier.Meta.Completeness)
	if len(dossier.Meta.Engines) > 0 {
		fmt.Printf("Engines:      %v\n", dossier.Meta.Engines)
	}

	fmt.Printf("\nSections\n")
	if dossier.Scorecard != nil {
		fmt.Printf("  Scorecard:   %d metrics, quality %.0f%%\n",
			len(dossier.Scorecard.Metrics), dossier.Scorecard.QualityScore())
	}
	fmt.Printf("  Diamonds:    %d\n", len(dossier.Organizations))
	fmt.Printf("  Events:      %d\n", len(dossier.Events))
	fmt.Printf("  Contacts:    %d\n", len(dossier.Contacts))

	if dossier.Meta.Ops == nil {
		fmt.Println("\nNo operation metrics were recorded for this run.")
		return nil
	}

	snap := dossier.Meta.Ops
	fmt.Printf("\nOperations\n")
	printOpStats("Search", snap.Search)
	printOpStats("Generate", snap.Generate)
	printTokenStats(snap.Generate)
	printOpStats("Extract", snap.Extract)
	printOpStats("Scrape", snap.Scrape)
	return nil
}

// printOpStats displays timing statistics for an operation.
func printOpStats(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("  %s: %d calls (%d failed), avg %.1fms, min %dms, max %dms\n",
		name, op.Count, op.Failures, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token usage if the operation recorded any.
func printTokenStats(op *metrics.OperationSnapshot) {
	if op == nil || op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("    Tokens: %d in, %d out", *op.TotalInputTokens, *op.TotalOutputTokens)
	if op.AvgInputTokens != nil && op.AvgOutputTokens != nil {
		fmt.Printf(" (avg %.0f in, %.0f out per call)", *op.AvgInputTokens, *op.AvgOutputTokens)
	}
	fmt.Println()
}
