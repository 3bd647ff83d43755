package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
	"github.com/krishija/campusintel/internal/search"
)

// ContactFinder resolves a single organization to a contact record through
// a four-step pipeline: hunt the homepage, analyze its links, scrape the
// promising pages, extract the contact.
type ContactFinder struct {
	deps Deps
}

// NewContactFinder builds the engine.
func NewContactFinder(deps Deps) *ContactFinder {
	return &ContactFinder{deps: deps}
}

// Find runs the pipeline for one entity. Every step may degrade: a missing
// homepage ends the run with an empty record rather than an error.
func (f *ContactFinder) Find(ctx context.Context, entity, campus string) (models.ContactRecord, error) {
	homepage, err := f.huntHomepage(ctx, entity, campus)
	if err != nil {
		return models.ContactRecord{Confidence: models.ConfidenceNone}, err
	}
	if homepage == "" {
		f.deps.Logger.Debug("no homepage found", "entity", entity)
		return models.ContactRecord{
			Organization: models.StringPtr(entity),
			Confidence:   models.ConfidenceNone,
		}, nil
	}

	urls := f.analyzeLinks(ctx, homepage)
	corpus := f.scrapeTargets(ctx, append([]string{homepage}, urls...))
	if strings.TrimSpace(corpus) == "" {
		return models.ContactRecord{
			Organization: models.StringPtr(entity),
			Confidence:   models.ConfidenceNone,
		}, nil
	}

	return f.extractContact(ctx, entity, corpus)
}

// huntHomepage finds the single best homepage URL for the entity,
// preferring .edu hosts over aggregators.
func (f *ContactFinder) huntHomepage(ctx context.Context, entity, campus string) (string, error) {
	query := fmt.Sprintf("%q %q official website homepage", entity, campus)
	resp, err := f.deps.Searcher.Search(ctx, query)
	if err != nil {
		return "", err
	}

	ranked := search.RankURLs(resp.Results)
	if len(ranked) == 0 {
		return "", nil
	}
	return ranked[0], nil
}

// analyzeLinks asks the generator which of the homepage's links lead to
// contact information. Failure here just narrows the scrape to the
// homepage itself.
func (f *ContactFinder) analyzeLinks(ctx context.Context, homepage string) []string {
	page, err := f.deps.Scraper.Fetch(ctx, homepage)
	if err != nil {
		f.deps.Logger.Debug("homepage fetch failed", "url", homepage, "error", err)
		return nil
	}

	prompt, err := pipeline.Prompt(linkAnalystPrompt).Render(map[string]string{
		"url":    homepage,
		"corpus": page,
	})
	if err != nil {
		return nil
	}

	raw, err := f.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil
	}

	att := f.deps.extractList(raw)
	if !att.OK() {
		return nil
	}
	var urls []string
	if err := att.Decode(&urls); err != nil {
		return nil
	}

	kept := urls[:0]
	for _, u := range urls {
		if strings.HasPrefix(u, "http") && !search.Blacklisted(u) {
			kept = append(kept, u)
		}
	}
	if len(kept) > 3 {
		kept = kept[:3]
	}
	return kept
}

// scrapeTargets builds a high-signal corpus from the candidate pages.
func (f *ContactFinder) scrapeTargets(ctx context.Context, urls []string) string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		text, err := f.deps.Scraper.Fetch(ctx, u)
		if err != nil {
			f.deps.Logger.Debug("scrape failed", "url", u, "error", err)
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", u, text)
	}
	return b.String()
}

func (f *ContactFinder) extractContact(ctx context.Context, entity, corpus string) (models.ContactRecord, error) {
	prompt, err := pipeline.Prompt(contactExtractionPrompt).Render(map[string]string{
		"corpus": corpus,
	})
	if err != nil {
		return models.ContactRecord{}, err
	}

	raw, err := f.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		return models.ContactRecord{}, err
	}

	att := f.deps.extractObject(raw)
	if !att.OK() {
		f.deps.Logger.Debug("contact extraction failed", "entity", entity, "reason", att.Failure.Reason)
		return models.ContactRecord{
			Organization: models.StringPtr(entity),
			Confidence:   models.ConfidenceNone,
		}, nil
	}

	var payload struct {
		OrganizationName *string `json:"organization_name"`
		LeaderName       *string `json:"leader_name"`
		LeaderTitle      *string `json:"leader_title"`
		ContactEmail     *string `json:"contact_email"`
		Phone            *string `json:"phone"`
	}
	if err := att.Decode(&payload); err != nil {
		return models.ContactRecord{
			Organization: models.StringPtr(entity),
			Confidence:   models.ConfidenceNone,
		}, nil
	}

	record := models.ContactRecord{
		Name:         payload.LeaderName,
		Title:        payload.LeaderTitle,
		Organization: payload.OrganizationName,
		Email:        payload.ContactEmail,
		Phone:        payload.Phone,
	}
	if record.Organization == nil {
		record.Organization = models.StringPtr(entity)
	}

	switch {
	case record.HasEmail() && record.Name != nil:
		record.Confidence = models.ConfidenceHigh
	case record.HasEmail():
		record.Confidence = models.ConfidenceMedium
	case record.Name != nil:
		record.Confidence = models.ConfidenceLow
	default:
		record.Confidence = models.ConfidenceNone
	}
	return record, nil
}
