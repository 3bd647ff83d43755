package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/krishija/campusintel/internal/models"
)

// notFound renders an unconfirmed field for humans. The JSON stays null;
// only the human-facing reports get prose.
const notFound = "not found"

func cell(p *string) string {
	return models.StringOr(p, notFound)
}

// DossierMarkdown renders the full campus dossier as a Markdown document.
// Empty sections are omitted entirely.
func DossierMarkdown(d *models.CampusDossier) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Campus Dossier: %s\n\n", d.Campus)
	fmt.Fprintf(&b, "Run `%s` generated %s, completeness %.0f%%.\n\n",
		d.Meta.RunID, d.Meta.GeneratedAt.Format("2006-01-02 15:04 MST"), d.Meta.Completeness)

	if d.Scorecard != nil && len(d.Scorecard.Metrics) > 0 {
		fmt.Fprintf(&b, "## Quantitative Scorecard (quality %.0f%%)\n\n", d.Scorecard.QualityScore())
		b.WriteString("| Metric | Value | Source | Confidence |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, m := range d.Scorecard.Metrics {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", m.Name, cell(m.Value), cell(m.Source), m.Confidence)
		}
		b.WriteString("\n")
	}

	if len(d.Organizations) > 0 {
		b.WriteString("## Diamond Organizations\n\n")
		for _, org := range d.Organizations {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", org.Name, cell(org.Category), cell(org.Story))
			if org.Signal != nil {
				fmt.Fprintf(&b, "  - Signal: %s\n", *org.Signal)
			}
		}
		b.WriteString("\n")
	}

	if len(d.Events) > 0 {
		b.WriteString("## Events\n\n")
		b.WriteString("| Event | Host | Date | Location | Type | Opportunity |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, ev := range d.Events {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				ev.Name, cell(ev.HostingOrg), cell(ev.Date), cell(ev.Location), cell(ev.Type), ev.Opportunity)
		}
		b.WriteString("\n")
	}

	if len(d.Contacts) > 0 {
		b.WriteString("## Contacts\n\n")
		b.WriteString("| Name | Title | Organization | Email | Phone | Confidence |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, c := range d.Contacts {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(c.Name), cell(c.Title), cell(c.Organization), cell(c.Email), cell(c.Phone), c.Confidence)
		}
		b.WriteString("\n")
	}

	if len(d.ThirdPlaces) > 0 {
		b.WriteString("## Third Places\n\n")
		for _, tp := range d.ThirdPlaces {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", tp.Name, cell(tp.Type), cell(tp.StudentActivity))
		}
		b.WriteString("\n")
	}

	if len(d.Findings) > 0 {
		b.WriteString("## Recent Findings\n\n")
		for _, f := range d.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if d.Assessment != nil {
		b.WriteString("## Strategic Assessment\n\n")
		fmt.Fprintf(&b, "**%s**\n\n", models.StringOr(d.Assessment.Tier, "untiered"))
		if d.Assessment.Reasoning != nil {
			fmt.Fprintf(&b, "%s\n\n", *d.Assessment.Reasoning)
		}
		if d.Assessment.FirstOutreach != nil {
			fmt.Fprintf(&b, "First outreach: %s\n\n", *d.Assessment.FirstOutreach)
		}
		if len(d.Assessment.KeyOpportunity) > 0 {
			b.WriteString("Key opportunities:\n\n")
			for _, k := range d.Assessment.KeyOpportunity {
				fmt.Fprintf(&b, "- %s\n", k)
			}
			b.WriteString("\n")
		}
		if d.Assessment.Notes != nil {
			fmt.Fprintf(&b, "Notes: %s\n\n", *d.Assessment.Notes)
		}
	}

	if len(d.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, src := range d.Sources {
			fmt.Fprintf(&b, "- <%s>\n", src)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ReconMarkdown renders a gatekeeper recon dossier as Markdown.
func ReconMarkdown(r *models.ReconDossier) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Gatekeeper Recon: %s\n\n", r.University)
	if r.AthleticsDomain != nil {
		fmt.Fprintf(&b, "Athletics domain: `%s`\n\n", *r.AthleticsDomain)
	}

	if len(r.Gatekeepers) > 0 {
		b.WriteString("## Gatekeepers\n\n")
		for _, g := range r.Gatekeepers {
			fmt.Fprintf(&b, "### %s\n\n", g.Name)
			fmt.Fprintf(&b, "- Title: %s\n", cell(g.Title))
			fmt.Fprintf(&b, "- Email: %s (confidence: %s)\n", cell(g.Email), g.EmailConfidence)
			fmt.Fprintf(&b, "- Phone: %s\n", cell(g.Phone))
			if g.BioURL != nil {
				fmt.Fprintf(&b, "- Bio: <%s>\n", *g.BioURL)
			}
			if g.ThoughtLeader {
				fmt.Fprintf(&b, "- Thought leader: yes (%s)\n", cell(g.Evidence))
			}
			if g.Seniority != nil {
				fmt.Fprintf(&b, "- Seniority: %s\n", *g.Seniority)
			}
			b.WriteString("\n")
		}
	}

	if len(r.LocalEcosystem) > 0 {
		b.WriteString("## Local Ecosystem\n\n")
		for _, c := range r.LocalEcosystem {
			fmt.Fprintf(&b, "- **%s**: %s", c.Name, cell(c.Specialization))
			if c.Practitioners != nil {
				fmt.Fprintf(&b, " (%s)", *c.Practitioners)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if r.ResearchNotes != nil {
		b.WriteString("## Research Notes\n\n")
		fmt.Fprintf(&b, "%s\n", *r.ResearchNotes)
	}

	return b.String()
}

// RenderHTML converts a Markdown report to a standalone HTML fragment.
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return markdown.Render(doc, renderer)
}
