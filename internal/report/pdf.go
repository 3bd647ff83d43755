package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/krishija/campusintel/internal/models"
)

const (
	pdfTitleSize   = 18.0
	pdfHeadingSize = 13.0
	pdfBodySize    = 10.0
	pdfLineHeight  = 5.5
)

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPDF(title string) *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.MultiCell(0, 9, d.tr(title), "", "L", false)
	pdf.Ln(3)
	return d
}

func (d *pdfDoc) heading(text string) {
	d.pdf.SetFont("Helvetica", "B", pdfHeadingSize)
	d.pdf.MultiCell(0, 7, d.tr(text), "", "L", false)
	d.pdf.Ln(1)
	d.pdf.SetFont("Helvetica", "", pdfBodySize)
}

func (d *pdfDoc) line(text string) {
	d.pdf.SetFont("Helvetica", "", pdfBodySize)
	d.pdf.MultiCell(0, pdfLineHeight, d.tr(text), "", "L", false)
}

func (d *pdfDoc) field(label string, value string) {
	d.pdf.SetFont("Helvetica", "B", pdfBodySize)
	d.pdf.CellFormat(45, pdfLineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", pdfBodySize)
	d.pdf.MultiCell(0, pdfLineHeight, d.tr(value), "", "L", false)
}

func (d *pdfDoc) gap() {
	d.pdf.Ln(3)
}

func (d *pdfDoc) write(path string) error {
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WriteDossierPDF renders the campus dossier to a PDF file.
func WriteDossierPDF(d *models.CampusDossier, path string) error {
	doc := newPDF("Campus Dossier: " + d.Campus)
	doc.line(fmt.Sprintf("Run %s, generated %s, completeness %.0f%%",
		d.Meta.RunID, d.Meta.GeneratedAt.Format("2006-01-02 15:04 MST"), d.Meta.Completeness))
	doc.gap()

	if d.Scorecard != nil && len(d.Scorecard.Metrics) > 0 {
		doc.heading(fmt.Sprintf("Quantitative Scorecard (quality %.0f%%)", d.Scorecard.QualityScore()))
		for _, m := range d.Scorecard.Metrics {
			value := models.StringOr(m.Value, notFound)
			if m.Source != nil {
				value += fmt.Sprintf(" [%s, %s]", *m.Source, m.Confidence)
			}
			doc.field(m.Name, value)
		}
		doc.gap()
	}

	if len(d.Organizations) > 0 {
		doc.heading("Diamond Organizations")
		for _, org := range d.Organizations {
			doc.field(org.Name, fmt.Sprintf("%s. %s (signal: %s)",
				models.StringOr(org.Category, notFound),
				models.StringOr(org.Story, notFound),
				models.StringOr(org.Signal, notFound)))
		}
		doc.gap()
	}

	if len(d.Events) > 0 {
		doc.heading("Events")
		for _, ev := range d.Events {
			doc.field(ev.Name, fmt.Sprintf("%s on %s at %s (%s, play: %s)",
				models.StringOr(ev.HostingOrg, "unknown host"),
				models.StringOr(ev.Date, "TBD"),
				models.StringOr(ev.Location, "TBD"),
				models.StringOr(ev.Type, notFound),
				ev.Opportunity))
		}
		doc.gap()
	}

	if len(d.Contacts) > 0 {
		doc.heading("Contacts")
		for _, c := range d.Contacts {
			label := models.StringOr(c.Name, models.StringOr(c.Email, "unknown"))
			doc.field(label, fmt.Sprintf("%s, %s. Email: %s, phone: %s (confidence: %s)",
				models.StringOr(c.Title, notFound),
				models.StringOr(c.Organization, notFound),
				models.StringOr(c.Email, notFound),
				models.StringOr(c.Phone, notFound),
				c.Confidence))
		}
		doc.gap()
	}

	if len(d.Findings) > 0 {
		doc.heading("Recent Findings")
		for _, f := range d.Findings {
			doc.line("- " + f)
		}
		doc.gap()
	}

	if d.Assessment != nil {
		doc.heading("Strategic Assessment")
		doc.field("Tier", models.StringOr(d.Assessment.Tier, "untiered"))
		if d.Assessment.Reasoning != nil {
			doc.field("Reasoning", *d.Assessment.Reasoning)
		}
		if d.Assessment.FirstOutreach != nil {
			doc.field("First outreach", *d.Assessment.FirstOutreach)
		}
		for _, k := range d.Assessment.KeyOpportunity {
			doc.field("Opportunity", k)
		}
		if d.Assessment.Notes != nil {
			doc.field("Notes", *d.Assessment.Notes)
		}
		doc.gap()
	}

	if len(d.Sources) > 0 {
		doc.heading("Sources")
		for _, src := range d.Sources {
			doc.line(src)
		}
	}

	return doc.write(path)
}

// WriteReconPDF renders a gatekeeper recon dossier to a PDF file.
func WriteReconPDF(r *models.ReconDossier, path string) error {
	doc := newPDF("Gatekeeper Recon: " + r.University)
	if r.AthleticsDomain != nil {
		doc.field("Athletics domain", *r.AthleticsDomain)
	}
	doc.gap()

	if len(r.Gatekeepers) > 0 {
		doc.heading("Gatekeepers")
		for _, g := range r.Gatekeepers {
			desc := fmt.Sprintf("%s. Email: %s (%s), phone: %s",
				models.StringOr(g.Title, notFound),
				models.StringOr(g.Email, notFound),
				g.EmailConfidence,
				models.StringOr(g.Phone, notFound))
			if g.ThoughtLeader {
				desc += fmt.Sprintf(". Thought leader: %s", models.StringOr(g.Evidence, "evidence on file"))
			}
			doc.field(g.Name, desc)
		}
		doc.gap()
	}

	if len(r.LocalEcosystem) > 0 {
		doc.heading("Local Ecosystem")
		for _, c := range r.LocalEcosystem {
			doc.field(c.Name, fmt.Sprintf("%s. Practitioners: %s. Affiliations: %s",
				models.StringOr(c.Specialization, notFound),
				models.StringOr(c.Practitioners, notFound),
				models.StringOr(c.Affiliations, notFound)))
		}
		doc.gap()
	}

	if r.ResearchNotes != nil {
		doc.heading("Research Notes")
		doc.line(*r.ResearchNotes)
	}

	return doc.write(path)
}
