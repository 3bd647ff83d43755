package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/krishija/campusintel/internal/fanout"
	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
	"github.com/krishija/campusintel/internal/search"
)

const maxAugmentationQueries = 6

// CampusEngine runs the plan-and-execute workflow: draft a baseline from
// the generator's own knowledge, have it plan the web searches that would
// verify and extend that baseline, execute them, and synthesize. Every
// stage falls back to the previous stage's output rather than failing.
type CampusEngine struct {
	deps Deps
}

// NewCampusEngine builds the engine.
func NewCampusEngine(deps Deps) *CampusEngine {
	return &CampusEngine{deps: deps}
}

// campusPayload is the shape shared by the baseline and the synthesis.
type campusPayload struct {
	DiamondOrgs    []models.Organization `json:"diamond_orgs"`
	ThirdPlaces    []models.ThirdPlace   `json:"third_places"`
	RecentFindings []string              `json:"recent_findings"`
}

// CampusIntel is the engine's output.
type CampusIntel struct {
	Organizations []models.Organization
	ThirdPlaces   []models.ThirdPlace
	Findings      []string
	Sources       []string
}

// Run executes the four stages.
func (e *CampusEngine) Run(ctx context.Context, campus string) (*CampusIntel, error) {
	baseline, err := e.baseline(ctx, campus)
	if err != nil {
		return nil, err
	}

	queries := e.planAugmentation(ctx, campus, baseline)
	corpus := e.research(ctx, queries)

	if corpus.Empty() {
		e.deps.Logger.Warn("augmentation research empty, returning baseline", "campus", campus)
		return intelFrom(baseline, nil), nil
	}

	final := e.synthesize(ctx, campus, baseline, corpus)
	return intelFrom(final, corpus.Sources), nil
}

func (e *CampusEngine) baseline(ctx context.Context, campus string) (*campusPayload, error) {
	prompt, err := pipeline.Prompt(baselineDossierPrompt).Render(map[string]string{"campus": campus})
	if err != nil {
		return nil, err
	}
	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	att := e.deps.extractObject(raw)
	if !att.OK() {
		e.deps.Logger.Warn("baseline generation returned no structure",
			"campus", campus,
			"reason", att.Failure.Reason)
		return &campusPayload{}, nil
	}
	var payload campusPayload
	if err := att.Decode(&payload); err != nil {
		return &campusPayload{}, nil
	}
	e.deps.Logger.Info("baseline drafted", "campus", campus, "orgs", len(payload.DiamondOrgs))
	return &payload, nil
}

// planAugmentation asks the generator what to search for next. On any
// failure it falls back to generic freshness queries.
func (e *CampusEngine) planAugmentation(ctx context.Context, campus string, baseline *campusPayload) []string {
	fallback := []string{
		campus + " Instagram meme pages student social media",
		campus + " Reddit recent posts student life",
		campus + " current events student organizations news",
	}

	baselineJSON, err := json.Marshal(baseline)
	if err != nil {
		return fallback
	}

	prompt, err := pipeline.Prompt(augmentationPlannerPrompt).Render(map[string]string{
		"campus":   campus,
		"baseline": string(baselineJSON),
	})
	if err != nil {
		return fallback
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		e.deps.Logger.Warn("augmentation planning failed, using fallback queries", "error", err)
		return fallback
	}

	att := e.deps.extractObject(raw)
	if !att.OK() {
		return fallback
	}
	var plan struct {
		// Planners sometimes return bare strings and sometimes
		// {"query": ...} objects; accept both.
		AugmentationQueries []json.RawMessage `json:"augmentation_queries"`
	}
	if err := att.Decode(&plan); err != nil || len(plan.AugmentationQueries) == 0 {
		return fallback
	}

	var queries []string
	for _, rawQ := range plan.AugmentationQueries {
		var s string
		if err := json.Unmarshal(rawQ, &s); err == nil {
			if strings.TrimSpace(s) != "" {
				queries = append(queries, s)
			}
			continue
		}
		var obj struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(rawQ, &obj); err == nil && strings.TrimSpace(obj.Query) != "" {
			queries = append(queries, obj.Query)
		}
	}
	if len(queries) == 0 {
		return fallback
	}
	if len(queries) > maxAugmentationQueries {
		queries = queries[:maxAugmentationQueries]
	}
	return queries
}

func (e *CampusEngine) research(ctx context.Context, queries []string) search.Corpus {
	tasks := make([]fanout.Task, len(queries))
	for i, q := range queries {
		tasks[i] = fanout.Task{Key: q, Query: q}
	}

	outcomes, err := fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (*search.Response, error) {
		return e.deps.Searcher.Search(ctx, task.Query)
	}, fanout.Options{Workers: e.deps.workers(), MaxRetries: 1})
	if err != nil {
		return search.Corpus{}
	}

	responses := make([]*search.Response, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			responses = append(responses, o.Value)
		}
	}
	return search.BuildCorpus(responses...)
}

// synthesize merges baseline and research. A failed synthesis returns the
// baseline annotated with the research sources so nothing is lost.
func (e *CampusEngine) synthesize(ctx context.Context, campus string, baseline *campusPayload, corpus search.Corpus) *campusPayload {
	baselineJSON, err := json.Marshal(baseline)
	if err != nil {
		return baseline
	}

	prompt, err := pipeline.Prompt(finalSynthesisPrompt).Render(map[string]string{
		"campus":   campus,
		"baseline": string(baselineJSON),
		"corpus":   corpus.Text,
	})
	if err != nil {
		return baseline
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		e.deps.Logger.Warn("final synthesis failed, keeping baseline", "error", err)
		return withSynthesisNote(baseline)
	}

	att := e.deps.extractObject(raw)
	if !att.OK() {
		return withSynthesisNote(baseline)
	}
	var final campusPayload
	if err := att.Decode(&final); err != nil {
		return withSynthesisNote(baseline)
	}
	return &final
}

func withSynthesisNote(baseline *campusPayload) *campusPayload {
	out := *baseline
	out.RecentFindings = append(out.RecentFindings, "Web research completed but synthesis failed")
	return &out
}

func intelFrom(p *campusPayload, sources []string) *CampusIntel {
	const maxSources = 10
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	return &CampusIntel{
		Organizations: p.DiamondOrgs,
		ThirdPlaces:   p.ThirdPlaces,
		Findings:      p.RecentFindings,
		Sources:       sources,
	}
}
