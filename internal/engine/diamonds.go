package engine

import (
	"context"
	"strings"

	"github.com/krishija/campusintel/internal/fanout"
	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
	"github.com/krishija/campusintel/internal/search"
)

var diamondQueries = []pipeline.Template{
	pipeline.MustTemplate(`site:{slug}.edu "club spotlight" OR "student organization feature"`),
	pipeline.MustTemplate(`"most unusual student clubs at {campus}"`),
	pipeline.MustTemplate(`site:reddit.com "{campus}" "most active club" OR "best clubs"`),
	pipeline.MustTemplate(`"{campus}" student-run business OR startup competition`),
	pipeline.MustTemplate(`"{campus}" student newspaper unique organizations quirky`),
	pipeline.MustTemplate(`site:reddit.com/r/{slug} club recommendations active`),
}

// DiamondEngine hunts for the quirky, high-energy student organizations
// that define campus culture.
type DiamondEngine struct {
	deps Deps
}

// NewDiamondEngine builds the engine.
func NewDiamondEngine(deps Deps) *DiamondEngine {
	return &DiamondEngine{deps: deps}
}

// Run fans the discovery queries out, then asks the generator to pick the
// diamonds from the combined corpus.
func (e *DiamondEngine) Run(ctx context.Context, campus string) ([]models.Organization, error) {
	vars := map[string]string{
		"campus": campus,
		"slug":   CampusSlug(campus),
	}

	tasks := make([]fanout.Task, 0, len(diamondQueries))
	for _, tmpl := range diamondQueries {
		q, err := tmpl.Render(vars)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, fanout.Task{Key: q, Query: q})
	}

	outcomes, err := fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (*search.Response, error) {
		return e.deps.Searcher.Search(ctx, task.Query)
	}, fanout.Options{Workers: e.deps.workers(), MaxRetries: 1})
	if err != nil {
		return nil, err
	}

	responses := make([]*search.Response, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			responses = append(responses, o.Value)
		}
	}

	corpus := search.BuildCorpus(responses...)
	if corpus.Empty() {
		e.deps.Logger.Warn("diamond discovery found no corpus", "campus", campus)
		return nil, nil
	}

	prompt, err := pipeline.Prompt(diamondFinderPrompt).Render(map[string]string{
		"campus": campus,
		"corpus": corpus.Text,
	})
	if err != nil {
		return nil, err
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	att := e.deps.extractObject(raw)
	if !att.OK() {
		e.deps.Logger.Warn("diamond extraction failed",
			"campus", campus,
			"reason", att.Failure.Reason)
		return nil, nil
	}

	var payload struct {
		DiamondOrgs []models.Organization `json:"diamond_orgs"`
	}
	if err := att.Decode(&payload); err != nil {
		return nil, nil
	}

	orgs := payload.DiamondOrgs[:0:0]
	for _, org := range payload.DiamondOrgs {
		if strings.TrimSpace(org.Name) != "" {
			orgs = append(orgs, org)
		}
	}

	e.deps.Logger.Info("diamonds found", "campus", campus, "count", len(orgs))
	return orgs, nil
}

// CampusSlug guesses the short web identifier for a campus, used for
// site-scoped queries and subreddit guesses. Best effort only.
func CampusSlug(campus string) string {
	s := strings.ToLower(campus)
	for _, drop := range []string{"university of", "the ", " university", " college", " state"} {
		s = strings.ReplaceAll(s, drop, "")
	}
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}
