package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/krishija/campusintel/internal/fanout"
	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
)

// contactVectors is the wide net: every angle from which student contacts
// surface on the public web. {campus} binds the university name, {domain}
// the guessed .edu host.
var contactVectors = []struct {
	name  string
	query pipeline.Template
}{
	{"student_government", pipeline.MustTemplate(`"{campus}" student government officers email contact directory`)},
	{"student_president", pipeline.MustTemplate(`"{campus}" student body president email address`)},
	{"sga_leadership", pipeline.MustTemplate(`site:{domain} student government association officers contact`)},
	{"student_newspaper", pipeline.MustTemplate(`"{campus}" student newspaper editor email contact`)},
	{"campus_media", pipeline.MustTemplate(`"{campus}" student radio station manager contact email`)},
	{"communications", pipeline.MustTemplate(`site:{domain} student publications staff contact`)},
	{"residence_life", pipeline.MustTemplate(`"{campus}" residence hall association staff email`)},
	{"campus_activities", pipeline.MustTemplate(`"{campus}" student activities board contact email`)},
	{"programming", pipeline.MustTemplate(`site:{domain} campus programming student staff`)},
	{"academic_senate", pipeline.MustTemplate(`"{campus}" student academic senate contact email`)},
	{"honor_societies", pipeline.MustTemplate(`"{campus}" honor society president contact`)},
	{"student_research", pipeline.MustTemplate(`site:{domain} undergraduate research coordinator`)},
	{"greek_life", pipeline.MustTemplate(`"{campus}" Greek life student coordinator email`)},
	{"multicultural", pipeline.MustTemplate(`"{campus}" multicultural affairs student staff`)},
	{"international", pipeline.MustTemplate(`site:{domain} international student services`)},
	{"peer_tutoring", pipeline.MustTemplate(`"{campus}" peer tutoring coordinator email`)},
	{"orientation", pipeline.MustTemplate(`"{campus}" student orientation leader contact`)},
	{"tour_guides", pipeline.MustTemplate(`site:{domain} campus tour guide supervisor`)},
	{"student_directory", pipeline.MustTemplate(`site:{domain} student staff directory email`)},
	{"leadership_directory", pipeline.MustTemplate(`"{campus}" student leadership directory contact`)},
}

var (
	eduEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]*\.edu`)
	mailtoEmRe = regexp.MustCompile(`(?i)mailto:([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+)`)
)

// emailFalsePositives are substrings that mark an address as noise rather
// than a person.
var emailFalsePositives = []string{
	"example@", "test@", "sample@", "placeholder@",
	"noreply@", "donotreply@", "admin@", "webmaster@",
	"@example.", "@test.", "@placeholder.", "@domain.",
}

const maxStructuredEmails = 20
const maxRankedContacts = 10

// SaturationEngine casts the widest possible net for student contacts:
// fan out over every vector, harvest addresses with regexes, then have the
// generator structure them into records.
type SaturationEngine struct {
	deps Deps
}

// NewSaturationEngine builds the engine.
func NewSaturationEngine(deps Deps) *SaturationEngine {
	return &SaturationEngine{deps: deps}
}

// SaturationResult carries the contacts plus harvest statistics.
type SaturationResult struct {
	Contacts       []models.ContactRecord `json:"contacts"`
	SourcesHit     int                    `json:"sources_hit"`
	RawEmailsFound int                    `json:"raw_emails_found"`
}

// Run executes the four saturation steps.
func (e *SaturationEngine) Run(ctx context.Context, campus string) (*SaturationResult, error) {
	texts, err := e.discover(ctx, campus)
	if err != nil {
		return nil, err
	}

	emails := HarvestEmails(texts)
	e.deps.Logger.Info("email harvest complete",
		"campus", campus,
		"sources", len(texts),
		"emails", len(emails))

	contacts, err := e.structure(ctx, campus, emails)
	if err != nil {
		return nil, err
	}

	ranked := RankContacts(models.DedupeContacts(contacts))
	if len(ranked) > maxRankedContacts {
		ranked = ranked[:maxRankedContacts]
	}

	return &SaturationResult{
		Contacts:       ranked,
		SourcesHit:     len(texts),
		RawEmailsFound: len(emails),
	}, nil
}

// discover fans out over all contact vectors and returns the gathered
// per-vector text blocks.
func (e *SaturationEngine) discover(ctx context.Context, campus string) ([]string, error) {
	vars := map[string]string{
		"campus": campus,
		"domain": CampusSlug(campus) + ".edu",
	}

	tasks := make([]fanout.Task, 0, len(contactVectors))
	for _, v := range contactVectors {
		q, err := v.query.Render(vars)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, fanout.Task{Key: v.name, Query: q})
	}

	outcomes, err := fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (string, error) {
		resp, err := e.deps.Searcher.Search(ctx, task.Query)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, r := range resp.Results {
			fmt.Fprintf(&b, "%s\n%s\n%s\n\n", r.Title, r.URL, r.Content)
		}
		return b.String(), nil
	}, fanout.Options{Workers: e.deps.workers(), MaxRetries: 1})
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, o := range outcomes {
		if !o.OK() {
			e.deps.Logger.Debug("contact vector degraded", "vector", o.Key, "error", o.Err)
			continue
		}
		if strings.TrimSpace(o.Value) != "" {
			texts = append(texts, o.Value)
		}
	}
	return texts, nil
}

// HarvestEmails pulls .edu addresses out of raw text blocks, dropping
// known false positives. Returned addresses are lowercase, unique, and
// sorted for determinism.
func HarvestEmails(texts []string) []string {
	set := make(map[string]bool)
	for _, text := range texts {
		for _, m := range eduEmailRe.FindAllString(text, -1) {
			addEmail(set, m)
		}
		for _, m := range mailtoEmRe.FindAllStringSubmatch(text, -1) {
			addEmail(set, m[1])
		}
	}

	emails := make([]string, 0, len(set))
	for e := range set {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	return emails
}

func addEmail(set map[string]bool, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if ValidContactEmail(email) {
		set[email] = true
	}
}

// ValidContactEmail reports whether email is a plausible personal .edu
// contact rather than harvest noise.
func ValidContactEmail(email string) bool {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".edu") {
		return false
	}
	if len(email) < 5 || len(email) > 50 {
		return false
	}
	lower := strings.ToLower(email)
	for _, fp := range emailFalsePositives {
		if strings.Contains(lower, fp) {
			return false
		}
	}
	return true
}

// structure asks the generator to turn bare addresses into contact
// records, falling back to pattern-based structuring when it fails.
func (e *SaturationEngine) structure(ctx context.Context, campus string, emails []string) ([]models.ContactRecord, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	if len(emails) > maxStructuredEmails {
		emails = emails[:maxStructuredEmails]
	}

	prompt, err := pipeline.Prompt(contactStructuringPrompt).Render(map[string]string{
		"campus": campus,
		"emails": strings.Join(emails, "\n"),
	})
	if err != nil {
		return nil, err
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		e.deps.Logger.Warn("contact structuring failed, using basic fallback", "error", err)
		return BasicStructure(emails), nil
	}

	att := e.deps.extractList(raw)
	if !att.OK() {
		return BasicStructure(emails), nil
	}

	var payload []struct {
		Name         *string `json:"name"`
		Title        *string `json:"title"`
		Organization *string `json:"organization"`
		Email        *string `json:"email"`
		Confidence   string  `json:"confidence"`
	}
	if err := att.Decode(&payload); err != nil || len(payload) == 0 {
		return BasicStructure(emails), nil
	}

	contacts := make([]models.ContactRecord, 0, len(payload))
	for _, p := range payload {
		if p.Email == nil || !ValidContactEmail(strings.ToLower(*p.Email)) {
			continue
		}
		contacts = append(contacts, boostConfidence(models.ContactRecord{
			Name:         p.Name,
			Title:        p.Title,
			Organization: p.Organization,
			Email:        p.Email,
			Confidence:   models.NormalizeConfidence(p.Confidence),
		}))
	}
	return contacts, nil
}

// BasicStructure is the deterministic fallback: infer a name from the
// address prefix and a title from its keywords. Everything is low
// confidence by construction.
func BasicStructure(emails []string) []models.ContactRecord {
	contacts := make([]models.ContactRecord, 0, len(emails))
	for _, email := range emails {
		prefix := strings.SplitN(email, "@", 2)[0]

		var name string
		if strings.Contains(prefix, ".") {
			var parts []string
			for _, p := range strings.Split(prefix, ".") {
				if len(p) > 1 {
					parts = append(parts, strings.ToUpper(p[:1])+p[1:])
				}
			}
			name = strings.Join(parts, " ")
		}

		title := "Student Contact"
		switch {
		case strings.Contains(prefix, "president") || strings.Contains(prefix, "pres"):
			title = "President"
		case strings.Contains(prefix, "sga") || strings.Contains(prefix, "government"):
			title = "Student Government"
		case strings.Contains(prefix, "editor") || strings.Contains(prefix, "news"):
			title = "Editor"
		}

		contacts = append(contacts, boostConfidence(models.ContactRecord{
			Name:       models.StringPtr(name),
			Title:      models.StringPtr(title),
			Email:      &email,
			Confidence: models.ConfidenceLow,
		}))
	}
	return contacts
}

// boostConfidence bumps records whose address shape signals an official
// role or a real person.
func boostConfidence(c models.ContactRecord) models.ContactRecord {
	if c.Email == nil {
		return c
	}
	email := strings.ToLower(*c.Email)

	officialKeyword := false
	for _, kw := range []string{"sga", "government", "president", "editor"} {
		if strings.Contains(email, kw) {
			officialKeyword = true
			break
		}
	}
	if officialKeyword {
		switch c.Confidence {
		case models.ConfidenceLow:
			c.Confidence = models.ConfidenceMedium
		case models.ConfidenceMedium:
			c.Confidence = models.ConfidenceHigh
		}
	}

	// first.last addresses almost always map to a real person.
	prefix := strings.SplitN(email, "@", 2)[0]
	if parts := strings.Split(prefix, "."); len(parts) == 2 && c.Confidence == models.ConfidenceLow {
		c.Confidence = models.ConfidenceMedium
	}
	return c
}

// titlePriority orders contacts within a confidence band.
var titlePriority = []struct {
	keyword string
	score   int
}{
	{"president", 10},
	{"vice president", 9},
	{"treasurer", 8},
	{"secretary", 7},
	{"coordinator", 6},
	{"director", 5},
	{"editor", 4},
	{"manager", 3},
	{"student government", 2},
}

func contactScore(c models.ContactRecord) int {
	score := 0
	switch c.Confidence {
	case models.ConfidenceHigh:
		score = 30
	case models.ConfidenceMedium:
		score = 20
	case models.ConfidenceLow:
		score = 10
	}
	title := strings.ToLower(models.StringOr(c.Title, ""))
	for _, tp := range titlePriority {
		if strings.Contains(title, tp.keyword) {
			score += tp.score
			break
		}
	}
	return score
}

// RankContacts sorts by confidence then title importance, stably so equal
// contacts keep their harvest order.
func RankContacts(contacts []models.ContactRecord) []models.ContactRecord {
	out := append([]models.ContactRecord(nil), contacts...)
	sort.SliceStable(out, func(i, j int) bool {
		return contactScore(out[i]) > contactScore(out[j])
	})
	return out
}
