package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/engine"
	"github.com/krishija/campusintel/internal/models"
)

var dossierCmd = &cobra.Command{
	Use:   "dossier <campus>",
	Short: "Build the full research dossier for one campus",
	Long: `Build the full research dossier for one campus: quantitative scorecard,
campus intelligence (baseline + planned web research), events, contact
saturation, and the strategic assessment.

Degraded stages leave their sections empty; the run still completes and
reports a completeness score.

Examples:
  campusintel dossier "University of Vermont"
  campusintel dossier "Texas Christian University" -v`,
	Args: cobra.ExactArgs(1),
	RunE: runDossier,
}

func runDossier(cmd *cobra.Command, args []string) error {
	campus := args[0]
	ctx := cmd.Context()

	fmt.Printf("Researching %s...\n", campus)

	builder := engine.NewDossierBuilder(engineDeps())
	dossier, err := builder.Build(ctx, campus)
	if err != nil {
		// Build aborts only for fatal API errors or cancellation; both
		// mean no amount of retrying within this run will help.
		return err
	}

	dossier.Meta.Ops = snapshotOps()
	path, err := store.SaveDossier(dossier)
	if err != nil {
		return err
	}

	printDossierSummary(dossier, path)
	return nil
}

func printDossierSummary(d *models.CampusDossier, path string) {
	fmt.Printf("\n%s\n", d.Campus)
	fmt.Printf("═══════════════════════════════════════\n")
	if d.Scorecard != nil {
		fmt.Printf("Scorecard quality: %.0f%%\n", d.Scorecard.QualityScore())
	}
	fmt.Printf("Diamond orgs:      %d\n", len(d.Organizations))
	fmt.Printf("Events:            %d\n", len(d.Events))
	fmt.Printf("Contacts:          %d\n", len(d.Contacts))
	if d.Assessment != nil && d.Assessment.Tier != nil {
		fmt.Printf("Assessment:        %s\n", *d.Assessment.Tier)
	}
	fmt.Printf("Completeness:      %.0f%% (%s)\n", d.Meta.Completeness, d.Meta.Duration.Round(time.Second))
	fmt.Printf("\nSaved to %s\n", path)
}
