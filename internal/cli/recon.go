package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/engine"
	"github.com/krishija/campusintel/internal/llm"
	"github.com/krishija/campusintel/internal/models"
)

const reconMaxTurns = 12

var reconCity string

var reconCmd = &cobra.Command{
	Use:   "recon <university>",
	Short: "Agentic gatekeeper reconnaissance",
	Long: `Dispatch the autonomous reconnaissance agent against one university's
athletics program. The agent decides its own searches via a web_search
tool: it identifies sports medicine gatekeepers, validates their industry
influence, and maps the local clinic ecosystem.

Examples:
  campusintel recon "University of Vermont"
  campusintel recon "Texas Christian University" --city "Fort Worth"`,
	Args: cobra.ExactArgs(1),
	RunE: runRecon,
}

func init() {
	reconCmd.Flags().StringVar(&reconCity, "city", "", "city for local ecosystem searches")
}

func runRecon(cmd *cobra.Command, args []string) error {
	university := args[0]
	ctx := cmd.Context()
	start := time.Now()

	fmt.Printf("Dispatching recon agent for %s...\n", university)

	agent := llm.NewAgent(generator, []llm.Tool{engine.SearchTool(searcher)}, reconMaxTurns)
	eng := engine.NewReconEngine(agent, engineDeps())

	dossier, err := eng.Run(ctx, university, reconCity)
	if err != nil {
		return err
	}

	dossier.Meta = models.RunMeta{
		RunID:       uuid.NewString(),
		GeneratedAt: start.UTC(),
		Duration:    time.Since(start),
		Engines:     []string{"recon"},
		Ops:         snapshotOps(),
	}

	path, err := store.SaveRecon(dossier)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", university)
	fmt.Printf("═══════════════════════════════════════\n")
	if dossier.AthleticsDomain != nil {
		fmt.Printf("Athletics domain: %s\n", *dossier.AthleticsDomain)
	}
	fmt.Printf("Gatekeepers:      %d\n", len(dossier.Gatekeepers))
	for _, g := range dossier.Gatekeepers {
		marker := " "
		if g.ThoughtLeader {
			marker = "*"
		}
		fmt.Printf("  %s %-25s %-30s %s\n", marker, g.Name,
			models.StringOr(g.Title, ""), models.StringOr(g.Email, "(no email)"))
	}
	fmt.Printf("Local clinics:    %d\n", len(dossier.LocalEcosystem))
	fmt.Printf("\nSaved to %s\n", path)
	return nil
}
