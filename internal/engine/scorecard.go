package engine

import (
	"context"
	"fmt"

	"github.com/krishija/campusintel/internal/fanout"
	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
	"github.com/krishija/campusintel/internal/search"
)

// metricSpec names one growth-correlate metric and the queries that find it.
type metricSpec struct {
	name        string
	description string
	queries     []pipeline.Template
}

var metricSpecs = []metricSpec{
	{
		name:        "on_campus_housing_pct",
		description: "percentage of undergraduates living in university housing",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" "Common Data Set" housing undergraduate percentage`),
			pipeline.MustTemplate(`"{campus}" student housing statistics site:.edu`),
		},
	},
	{
		name:        "campus_centricity",
		description: "campus centricity score 1-10, where 10 is an isolated college town and 1 is a fully integrated urban campus; include a short justification",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" Walk Score college town site:reddit.com`),
			pipeline.MustTemplate(`"{campus}" campus location urban suburban college town`),
		},
	},
	{
		name:        "ncaa_division",
		description: "NCAA division (D1/D2/D3/NAIA/None) and athletic conference",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" NCAA division athletics sports`),
			pipeline.MustTemplate(`"{campus}" athletic conference division`),
		},
	},
	{
		name:        "greek_life_pct",
		description: "percentage of students in Greek life",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" Common Data Set greek life fraternity`),
			pipeline.MustTemplate(`"{campus}" greek life percentage statistics`),
		},
	},
	{
		name:        "student_faculty_ratio",
		description: "student-to-faculty ratio, e.g. 15:1",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" student faculty ratio statistics`),
			pipeline.MustTemplate(`"{campus}" US News student faculty ratio`),
		},
	},
	{
		name:        "acceptance_rate",
		description: "undergraduate acceptance rate percentage",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" acceptance rate admissions statistics`),
			pipeline.MustTemplate(`"{campus}" US News acceptance rate`),
		},
	},
	{
		name:        "out_of_state_pct",
		description: "percentage of undergraduates from out of state",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" out-of-state students percentage enrollment`),
			pipeline.MustTemplate(`"{campus}" Common Data Set geographic residency undergraduate`),
		},
	},
	{
		name:        "endowment_per_student",
		description: "endowment per enrolled student",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" endowment per student`),
			pipeline.MustTemplate(`"{campus}" endowment total enrollment statistics`),
		},
	},
	{
		name:        "retention_rate",
		description: "first-year retention rate percentage",
		queries: []pipeline.Template{
			pipeline.MustTemplate(`"{campus}" first-year retention rate`),
			pipeline.MustTemplate(`"{campus}" freshman retention rate Common Data Set`),
		},
	},
}

// ScorecardEngine extracts the quantitative growth-correlate metrics.
type ScorecardEngine struct {
	deps Deps
}

// NewScorecardEngine builds the engine.
func NewScorecardEngine(deps Deps) *ScorecardEngine {
	return &ScorecardEngine{deps: deps}
}

// Run fans the metric lookups out over the worker pool. A metric whose
// search or extraction fails lands in the scorecard with a nil value, so
// the quality score reflects exactly what was confirmed.
func (e *ScorecardEngine) Run(ctx context.Context, campus string) (*models.Scorecard, error) {
	tasks := make([]fanout.Task, len(metricSpecs))
	for i, spec := range metricSpecs {
		tasks[i] = fanout.Task{Key: spec.name}
	}

	outcomes, err := fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (models.Metric, error) {
		return e.extractMetric(ctx, campus, specByName(task.Key))
	}, fanout.Options{Workers: e.deps.workers(), MaxRetries: 2})
	if err != nil {
		return nil, err
	}

	sc := &models.Scorecard{Campus: campus, Metrics: make([]models.Metric, len(outcomes))}
	for i, o := range outcomes {
		if o.OK() {
			sc.Metrics[i] = o.Value
			continue
		}
		e.deps.Logger.Warn("metric degraded", "campus", campus, "metric", o.Key, "error", o.Err)
		sc.Metrics[i] = models.Metric{Name: o.Key, Confidence: models.ConfidenceNone}
	}

	e.deps.Logger.Info("scorecard assembled",
		"campus", campus,
		"quality_score", sc.QualityScore())
	return sc, nil
}

func specByName(name string) metricSpec {
	for _, s := range metricSpecs {
		if s.name == name {
			return s
		}
	}
	return metricSpec{name: name}
}

// metricPayload is the JSON shape the generator is asked for.
type metricPayload struct {
	Value      any     `json:"value"`
	Source     *string `json:"source"`
	Confidence string  `json:"confidence"`
}

func (e *ScorecardEngine) extractMetric(ctx context.Context, campus string, spec metricSpec) (models.Metric, error) {
	var responses []*search.Response
	for _, q := range spec.queries {
		query, err := q.RenderCampus(campus)
		if err != nil {
			return models.Metric{}, err
		}
		resp, err := e.deps.Searcher.Search(ctx, query)
		if err != nil {
			e.deps.Logger.Debug("metric query failed", "metric", spec.name, "error", err)
			continue
		}
		responses = append(responses, resp)
	}

	corpus := search.BuildCorpus(responses...)
	if corpus.Empty() {
		return models.Metric{Name: spec.name, Confidence: models.ConfidenceNone}, nil
	}

	// Bind the metric description before placeholder substitution so a
	// stray percent sign in the corpus cannot corrupt the prompt.
	tmpl := pipeline.Prompt(fmt.Sprintf(metricPromptFormat, spec.description))
	prompt, err := tmpl.Render(map[string]string{
		"campus": campus,
		"corpus": corpus.Text,
	})
	if err != nil {
		return models.Metric{}, err
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		return models.Metric{}, err
	}

	att := e.deps.extractObject(raw)
	if !att.OK() {
		e.deps.Logger.Debug("metric extraction failed",
			"metric", spec.name,
			"reason", att.Failure.Reason)
		return models.Metric{Name: spec.name, Confidence: models.ConfidenceNone}, nil
	}

	var payload metricPayload
	if err := att.Decode(&payload); err != nil {
		return models.Metric{Name: spec.name, Confidence: models.ConfidenceNone}, nil
	}

	m := models.Metric{
		Name:       spec.name,
		Source:     payload.Source,
		Confidence: models.NormalizeConfidence(payload.Confidence),
	}
	if payload.Value != nil {
		m.Value = models.StringPtr(fmt.Sprintf("%v", payload.Value))
	}
	if m.Value == nil {
		m.Confidence = models.ConfidenceNone
	}
	return m, nil
}
