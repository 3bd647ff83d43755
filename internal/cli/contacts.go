package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/engine"
	"github.com/krishija/campusintel/internal/llm"
	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/report"
)

var contactsCSV bool

var contactsCmd = &cobra.Command{
	Use:   "contacts <campus>",
	Short: "Saturate student contact discovery for one campus",
	Long: `Cast the widest possible net for student contacts at one campus: fan out
over every contact vector, harvest .edu addresses, structure them into
records, and rank the top candidates.

Examples:
  campusintel contacts "University of Vermont"
  campusintel contacts "University of Vermont" --csv`,
	Args: cobra.ExactArgs(1),
	RunE: runContacts,
}

func init() {
	contactsCmd.Flags().BoolVar(&contactsCSV, "csv", false, "also export contacts as CSV")
}

func runContacts(cmd *cobra.Command, args []string) error {
	campus := args[0]
	ctx := cmd.Context()
	start := time.Now()

	fmt.Printf("Hunting contacts at %s...\n", campus)

	result, err := engine.NewSaturationEngine(engineDeps()).Run(ctx, campus)
	if err != nil {
		if llm.IsFatal(err) {
			return err
		}
		return fmt.Errorf("contact saturation: %w", err)
	}

	dossier := &models.CampusDossier{
		Campus:   campus,
		Contacts: result.Contacts,
		Meta: models.RunMeta{
			RunID:        uuid.NewString(),
			GeneratedAt:  start.UTC(),
			Duration:     time.Since(start),
			Completeness: 100,
			Engines:      []string{"saturation"},
			Ops:          snapshotOps(),
		},
	}

	path, err := store.SaveDossier(dossier)
	if err != nil {
		return err
	}

	fmt.Printf("\nSources hit: %d, raw emails found: %d\n", result.SourcesHit, result.RawEmailsFound)
	if len(result.Contacts) == 0 {
		fmt.Println("No contacts confirmed.")
	} else {
		fmt.Printf("\nTop contacts:\n")
		for i, c := range result.Contacts {
			fmt.Printf("%2d. %-25s %-25s %s (%s)\n", i+1,
				models.StringOr(c.Name, "(name unknown)"),
				models.StringOr(c.Title, ""),
				models.StringOr(c.Email, ""),
				c.Confidence)
		}
	}

	if contactsCSV {
		csvPath := filepath.Join(cfg.OutputDir, report.Slugify(campus)+"-contacts.csv")
		if err := report.WriteContactsCSV(result.Contacts, csvPath); err != nil {
			return err
		}
		fmt.Printf("\nCSV written to %s\n", csvPath)
	}

	fmt.Printf("\nSaved to %s\n", path)
	return nil
}
