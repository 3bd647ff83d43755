package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/search"
)

type stubSearcher struct {
	fn func(query string) (*search.Response, error)
}

func (s stubSearcher) Search(_ context.Context, query string) (*search.Response, error) {
	return s.fn(query)
}

type stubGenerator struct {
	fn func(prompt string) (string, error)
}

func (g stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return g.fn(prompt)
}

func (g stubGenerator) GenerateWithSystem(_ context.Context, _, user string) (string, error) {
	return g.fn(user)
}

type stubScraper struct {
	pages map[string]string
}

func (s stubScraper) Fetch(_ context.Context, url string) (string, error) {
	page, ok := s.pages[url]
	if !ok {
		return "", errors.New("not found")
	}
	return page, nil
}

func testDeps(searcher search.Searcher, gen Generator, scraper search.Scraper) Deps {
	return Deps{
		Searcher:  searcher,
		Generator: gen,
		Scraper:   scraper,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Workers:   2,
	}
}

func oneResult(url, title, content string) *search.Response {
	return &search.Response{Results: []search.Result{{URL: url, Title: title, Content: content, Score: 0.9}}}
}

func TestContactFinder_EndToEnd(t *testing.T) {
	searcher := stubSearcher{fn: func(query string) (*search.Response, error) {
		return oneResult("https://watertower.example.edu", "The Water Tower", "student newspaper"), nil
	}}
	scraper := stubScraper{pages: map[string]string{
		"https://watertower.example.edu":         "Welcome. See our contact page.",
		"https://watertower.example.edu/contact": "contact: jane.doe@example.edu, President",
	}}
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "contact information paths") {
			return `Here are the paths: ["https://watertower.example.edu/contact"]`, nil
		}
		return "Sure! Based on the pages:\n```json\n{\"organization_name\": \"The Water Tower\", \"leader_name\": \"Jane Doe\", \"leader_title\": \"President\", \"contact_email\": \"jane.doe@example.edu\", \"phone\": null}\n```\nHope that helps!", nil
	}}

	finder := NewContactFinder(testDeps(searcher, gen, scraper))
	record, err := finder.Find(context.Background(), "The Water Tower", "Example University")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if record.Name == nil || *record.Name != "Jane Doe" {
		t.Errorf("name = %v", record.Name)
	}
	if record.Email == nil || *record.Email != "jane.doe@example.edu" {
		t.Errorf("email = %v", record.Email)
	}
	if record.Title == nil || *record.Title != "President" {
		t.Errorf("title = %v", record.Title)
	}
	if record.Phone != nil {
		t.Errorf("phone should stay null, got %v", *record.Phone)
	}
	if record.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %s", record.Confidence)
	}
}

func TestContactFinder_ProseOnlyResponseYieldsAbsence(t *testing.T) {
	searcher := stubSearcher{fn: func(string) (*search.Response, error) {
		return oneResult("https://club.example.edu", "Club", "club page"), nil
	}}
	scraper := stubScraper{pages: map[string]string{
		"https://club.example.edu": "About our club. No contacts listed.",
	}}
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		return "I could not find any contact information on these pages, sorry.", nil
	}}

	finder := NewContactFinder(testDeps(searcher, gen, scraper))
	record, err := finder.Find(context.Background(), "Chess Club", "Example University")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if record.Email != nil || record.Name != nil || record.Phone != nil {
		t.Errorf("absence markers expected, got %+v", record)
	}
	if record.Confidence != models.ConfidenceNone {
		t.Errorf("confidence = %s, want none", record.Confidence)
	}
	if record.Organization == nil {
		t.Error("organization context should be retained")
	}
}

func TestContactFinder_NoHomepage(t *testing.T) {
	searcher := stubSearcher{fn: func(string) (*search.Response, error) {
		return &search.Response{}, nil
	}}
	gen := stubGenerator{fn: func(string) (string, error) {
		t.Fatal("generator must not run without a homepage")
		return "", nil
	}}

	finder := NewContactFinder(testDeps(searcher, gen, stubScraper{}))
	record, err := finder.Find(context.Background(), "Ghost Org", "Example University")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if record.Confidence != models.ConfidenceNone || record.Email != nil {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestScorecardEngine_DegradedMetricsKeepNullValues(t *testing.T) {
	searcher := stubSearcher{fn: func(query string) (*search.Response, error) {
		if strings.Contains(query, "retention") {
			return oneResult("https://example.edu/facts", "Facts", "retention rate is 91%"), nil
		}
		// Every other metric finds nothing.
		return &search.Response{}, nil
	}}
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		return `{"value": "91%", "source": "Common Data Set", "confidence": "high"}`, nil
	}}

	eng := NewScorecardEngine(testDeps(searcher, gen, stubScraper{}))
	sc, err := eng.Run(context.Background(), "Example University")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sc.Metrics) != len(metricSpecs) {
		t.Fatalf("metrics = %d, want %d", len(sc.Metrics), len(metricSpecs))
	}

	retention := sc.Metric("retention_rate")
	if retention == nil || retention.Value == nil || *retention.Value != "91%" {
		t.Errorf("retention metric = %+v", retention)
	}
	if retention.Confidence != models.ConfidenceHigh {
		t.Errorf("retention confidence = %s", retention.Confidence)
	}

	housing := sc.Metric("on_campus_housing_pct")
	if housing == nil || housing.Value != nil || housing.Confidence != models.ConfidenceNone {
		t.Errorf("degraded metric should carry null value and none confidence: %+v", housing)
	}

	wantQuality := 100.0 / float64(len(metricSpecs))
	if diff := sc.QualityScore() - wantQuality; diff > 0.01 || diff < -0.01 {
		t.Errorf("quality = %v, want %v", sc.QualityScore(), wantQuality)
	}
}

func TestEventEngine_TagsAndNormalizes(t *testing.T) {
	searcher := stubSearcher{fn: func(string) (*search.Response, error) {
		return oneResult("https://events.example.edu", "Calendar", "Spring Concert on the Main Quad, hosted by Programming Board"), nil
	}}
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "playbook") {
			return `[{"event_name": "Spring Concert", "hosting_org": "Programming Board", "date": "April 15", "location": "Main Quad", "event_type": "Concert", "opportunity": "Sponsorship Play"}]`, nil
		}
		return `[{"event_name": "Spring Concert", "hosting_org": "Programming Board", "date": "April 15", "location": "Main Quad", "event_type": "Concert"}]`, nil
	}}

	eng := NewEventEngine(testDeps(searcher, gen, stubScraper{}))
	events, err := eng.Run(context.Background(), "Example University", []models.Organization{{Name: "Cheese Club"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Opportunity != models.OpportunitySponsorship {
		t.Errorf("opportunity = %s, want sponsorship", events[0].Opportunity)
	}
}

func TestCampusEngine_FallsBackToBaseline(t *testing.T) {
	searcher := stubSearcher{fn: func(string) (*search.Response, error) {
		return nil, errors.New("search down")
	}}
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "baseline dossier") && strings.Contains(prompt, "only what you already know") {
			return `{"diamond_orgs": [{"name": "Squirrel Watching Society"}], "third_places": [], "recent_findings": []}`, nil
		}
		return `{"augmentation_queries": ["Example University clubs"]}`, nil
	}}

	eng := NewCampusEngine(testDeps(searcher, gen, stubScraper{}))
	intel, err := eng.Run(context.Background(), "Example University")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(intel.Organizations) != 1 || intel.Organizations[0].Name != "Squirrel Watching Society" {
		t.Errorf("baseline orgs lost: %+v", intel.Organizations)
	}
	if len(intel.Sources) != 0 {
		t.Errorf("no sources expected, got %v", intel.Sources)
	}
}

func TestHarvestEmails(t *testing.T) {
	texts := []string{
		"Reach the SGA at sga.president@vermont.edu or via mailto:board@vermont.edu today",
		"Noise: noreply@vermont.edu, webmaster@vermont.edu, someone@gmail.com",
		"Duplicate: SGA.President@Vermont.edu",
	}

	got := HarvestEmails(texts)
	want := []string{"board@vermont.edu", "sga.president@vermont.edu"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("email[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestValidContactEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane.doe@vermont.edu", true},
		{"sga@campus.vermont.edu", true},
		{"someone@gmail.com", false},
		{"noreply@vermont.edu", false},
		{"webmaster@vermont.edu", false},
		{"jane.doe@example.edu", false},
		{"way.too.long.to.be.a.real.person.address.somehow@vermont.edu", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidContactEmail(tt.email); got != tt.want {
			t.Errorf("ValidContactEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestBasicStructure(t *testing.T) {
	contacts := BasicStructure([]string{"sga.president@vermont.edu", "info@clubs.vermont.edu"})
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d", len(contacts))
	}

	first := contacts[0]
	if first.Name == nil || *first.Name != "Sga President" {
		t.Errorf("name = %v", first.Name)
	}
	if first.Title == nil || *first.Title != "President" {
		t.Errorf("title = %v", first.Title)
	}
	// Official keyword bumps the fallback's low confidence one step.
	if first.Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %s, want medium", first.Confidence)
	}

	second := contacts[1]
	if second.Title == nil || *second.Title != "Student Contact" {
		t.Errorf("generic title = %v", second.Title)
	}
	if second.Confidence != models.ConfidenceLow {
		t.Errorf("generic confidence = %s, want low", second.Confidence)
	}
}

func TestRankContacts(t *testing.T) {
	contacts := []models.ContactRecord{
		{Name: models.StringPtr("Low Member"), Title: models.StringPtr("Member"), Confidence: models.ConfidenceLow},
		{Name: models.StringPtr("High Pres"), Title: models.StringPtr("President"), Confidence: models.ConfidenceHigh},
		{Name: models.StringPtr("High Editor"), Title: models.StringPtr("Managing Editor"), Confidence: models.ConfidenceHigh},
	}

	ranked := RankContacts(contacts)
	if *ranked[0].Name != "High Pres" {
		t.Errorf("rank[0] = %s", *ranked[0].Name)
	}
	if *ranked[1].Name != "High Editor" {
		t.Errorf("rank[1] = %s", *ranked[1].Name)
	}
	if *ranked[2].Name != "Low Member" {
		t.Errorf("rank[2] = %s", *ranked[2].Name)
	}
}

func TestHeuristicAssessment(t *testing.T) {
	high := &models.CampusDossier{
		Campus: "Example University",
		Scorecard: &models.Scorecard{Metrics: []models.Metric{
			{Name: "a", Value: models.StringPtr("1")},
			{Name: "b", Value: models.StringPtr("2")},
			{Name: "c", Value: models.StringPtr("3")},
			{Name: "d", Value: models.StringPtr("4")},
			{Name: "e", Value: nil},
		}},
		Organizations: make([]models.Organization, 6),
		Contacts: []models.ContactRecord{
			{Email: models.StringPtr("a@x.edu"), Confidence: models.ConfidenceHigh},
			{Email: models.StringPtr("b@x.edu"), Confidence: models.ConfidenceHigh},
		},
	}
	a := HeuristicAssessment(high)
	if a.Tier == nil || !strings.HasPrefix(*a.Tier, "Tier 1") {
		t.Errorf("tier = %v, want Tier 1", a.Tier)
	}
	if a.FirstOutreach == nil {
		t.Error("first outreach target missing")
	}

	empty := HeuristicAssessment(&models.CampusDossier{Campus: "Nowhere U"})
	if empty.Tier == nil || !strings.HasPrefix(*empty.Tier, "Tier 3") {
		t.Errorf("tier = %v, want Tier 3", empty.Tier)
	}
}

func TestCampusSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"University of Vermont", "vermont"},
		{"Texas Christian University", "texaschristian"},
		{"Example College", "example"},
	}
	for _, tt := range tests {
		if got := CampusSlug(tt.in); got != tt.want {
			t.Errorf("CampusSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type stubAgent struct {
	answer string
	err    error
}

func (a stubAgent) Run(_ context.Context, _, _ string) (string, error) {
	return a.answer, a.err
}

func TestReconEngine_GatekeeperConfidence(t *testing.T) {
	agent := stubAgent{answer: `{
		"university": "Example University",
		"athletics_domain": "exampleathletics.com",
		"gatekeepers": [
			{"name": "Dr. Pat Smith", "title": "Director of Sports Medicine", "email": "psmith@example.edu", "is_thought_leader": true},
			{"name": "Alex Jones", "title": "Head Athletic Trainer", "email": "ajones@exampleathletics.com"},
			{"name": "Sam Lee", "title": "Team Physician", "email": "unknown"},
			{"name": "", "title": "ignored"}
		],
		"local_ecosystem": [{"clinic_name": "Peak PT", "specialization": "sports physical therapy"}]
	}`}

	eng := NewReconEngine(agent, testDeps(stubSearcher{}, stubGenerator{}, stubScraper{}))
	dossier, err := eng.Run(context.Background(), "Example University", "Exampleville")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(dossier.Gatekeepers) != 3 {
		t.Fatalf("gatekeepers = %d, want 3 (blank name dropped)", len(dossier.Gatekeepers))
	}
	if got := dossier.Gatekeepers[0].EmailConfidence; got != models.ConfidenceHigh {
		t.Errorf("edu email confidence = %s, want high", got)
	}
	if !dossier.Gatekeepers[0].ThoughtLeader {
		t.Error("thought leader flag lost")
	}
	if got := dossier.Gatekeepers[1].EmailConfidence; got != models.ConfidenceMedium {
		t.Errorf("non-edu email confidence = %s, want medium", got)
	}
	if dossier.Gatekeepers[2].Email != nil {
		t.Errorf("address without @ should be dropped, got %v", *dossier.Gatekeepers[2].Email)
	}
	if dossier.Gatekeepers[2].EmailConfidence != models.ConfidenceNone {
		t.Errorf("missing email confidence = %s, want none", dossier.Gatekeepers[2].EmailConfidence)
	}
	if len(dossier.LocalEcosystem) != 1 {
		t.Errorf("clinics = %d, want 1", len(dossier.LocalEcosystem))
	}
}

func TestReconEngine_ProseAnswerKeepsNotes(t *testing.T) {
	agent := stubAgent{answer: "I searched extensively but the athletics site blocks crawlers, so here is what I learned in prose form."}

	eng := NewReconEngine(agent, testDeps(stubSearcher{}, stubGenerator{}, stubScraper{}))
	dossier, err := eng.Run(context.Background(), "Example University", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dossier.ResearchNotes == nil || *dossier.ResearchNotes == "" {
		t.Error("prose findings should be preserved as research notes")
	}
	if len(dossier.Gatekeepers) != 0 {
		t.Errorf("no gatekeepers expected, got %d", len(dossier.Gatekeepers))
	}
}

func TestDossierBuilder_Stage2FailureKeepsStage1(t *testing.T) {
	searcher := stubSearcher{fn: func(query string) (*search.Response, error) {
		return oneResult("https://example.edu", "Example", "retention rate 91% Spring Concert"), nil
	}}
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "data analyst extracting university statistics"):
			return `{"value": "91%", "source": "CDS", "confidence": "high"}`, nil
		case strings.Contains(prompt, "only what you already know"):
			// Stage 2 generator is down for this campus.
			return "", errors.New("model overloaded")
		case strings.Contains(prompt, "event intelligence specialist"):
			return `[{"event_name": "Spring Concert", "event_type": "Concert"}]`, nil
		case strings.Contains(prompt, "playbook"):
			return `[{"event_name": "Spring Concert", "event_type": "Concert", "opportunity": "Sponsorship"}]`, nil
		case strings.Contains(prompt, "contact analyst"):
			return `[]`, nil
		case strings.Contains(prompt, "Head of Growth"):
			return `{"tier": "Tier 2", "reasoning": "solid metrics, weak contacts", "first_outreach_target": "Programming Board", "key_opportunities": ["Spring Concert"], "notes": "ok"}`, nil
		default:
			return "", errors.New("unexpected prompt")
		}
	}}

	builder := NewDossierBuilder(testDeps(searcher, gen, stubScraper{}))
	dossier, err := builder.Build(context.Background(), "Example University")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Stage 1 results survive.
	if dossier.Scorecard == nil || dossier.Scorecard.Metric("retention_rate") == nil {
		t.Fatal("scorecard lost")
	}
	// Stage 2 fields carry explicit absence.
	if dossier.Organizations != nil {
		t.Errorf("organizations should be empty after degraded stage, got %+v", dossier.Organizations)
	}
	// The run still completes with an assessment and a completeness score.
	if dossier.Assessment == nil || dossier.Assessment.Tier == nil {
		t.Error("assessment missing")
	}
	if dossier.Meta.Completeness >= 100 || dossier.Meta.Completeness <= 0 {
		t.Errorf("completeness = %v, want partial", dossier.Meta.Completeness)
	}
	if dossier.Meta.RunID == "" {
		t.Error("run id missing")
	}
}
