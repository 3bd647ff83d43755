package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/report"
)

var reportFormats []string

var reportCmd = &cobra.Command{
	Use:   "report <run.json>",
	Short: "Render a saved run as PDF, Markdown, HTML, or CSV",
	Long: `Render a saved run file into human-facing reports. Works on both campus
dossiers and recon dossiers; output files are written next to the run
file with matching names.

Formats: pdf, md, html, csv (csv exports contacts, campus dossiers only).

Examples:
  campusintel report example-university-run1.json
  campusintel report example-university-run1.json --format pdf,html,csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringSliceVarP(&reportFormats, "format", "f", []string{"pdf", "md"}, "output formats")
}

func runReport(cmd *cobra.Command, args []string) error {
	path := args[0]
	base := strings.TrimSuffix(path, ".json")

	formats := make(map[string]bool, len(reportFormats))
	for _, f := range reportFormats {
		switch f = strings.ToLower(strings.TrimSpace(f)); f {
		case "pdf", "md", "markdown", "html", "csv":
			if f == "markdown" {
				f = "md"
			}
			formats[f] = true
		default:
			return fmt.Errorf("unknown format %q (want pdf, md, html, or csv)", f)
		}
	}

	if dossier, err := store.LoadDossier(path); err == nil {
		md := report.DossierMarkdown(dossier)
		if formats["md"] {
			if err := writeReport(base+".md", []byte(md)); err != nil {
				return err
			}
		}
		if formats["html"] {
			if err := writeReport(base+".html", report.RenderHTML(md)); err != nil {
				return err
			}
		}
		if formats["pdf"] {
			if err := report.WriteDossierPDF(dossier, base+".pdf"); err != nil {
				return err
			}
			fmt.Printf("Wrote %s.pdf\n", base)
		}
		if formats["csv"] {
			if err := report.WriteContactsCSV(dossier.Contacts, base+"-contacts.csv"); err != nil {
				return err
			}
			fmt.Printf("Wrote %s-contacts.csv\n", base)
		}
		return nil
	}

	recon, err := store.LoadRecon(path)
	if err != nil {
		return fmt.Errorf("%s is neither a campus nor a recon run file", path)
	}

	md := report.ReconMarkdown(recon)
	if formats["md"] {
		if err := writeReport(base+".md", []byte(md)); err != nil {
			return err
		}
	}
	if formats["html"] {
		if err := writeReport(base+".html", report.RenderHTML(md)); err != nil {
			return err
		}
	}
	if formats["pdf"] {
		if err := report.WriteReconPDF(recon, base+".pdf"); err != nil {
			return err
		}
		fmt.Printf("Wrote %s.pdf\n", base)
	}
	if formats["csv"] {
		fmt.Println("CSV export applies to campus dossiers only; skipped.")
	}
	return nil
}

func writeReport(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
