package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
)

// DossierBuilder composes the research engines into the full campus
// dossier run: scorecard, campus intel, events, contact saturation, and
// the strategic assessment, executed as a degradable stage pipeline.
type DossierBuilder struct {
	deps       Deps
	scorecard  *ScorecardEngine
	campus     *CampusEngine
	events     *EventEngine
	saturation *SaturationEngine
	assessment *AssessmentEngine
	runner     *pipeline.Runner
}

// NewDossierBuilder wires the engines.
func NewDossierBuilder(deps Deps) *DossierBuilder {
	return &DossierBuilder{
		deps:       deps,
		scorecard:  NewScorecardEngine(deps),
		campus:     NewCampusEngine(deps),
		events:     NewEventEngine(deps),
		saturation: NewSaturationEngine(deps),
		assessment: NewAssessmentEngine(deps),
		runner:     pipeline.NewRunner(deps.Logger),
	}
}

// Build runs the full pipeline for one campus. The returned dossier is
// always non-nil when err is nil; degraded stages leave their sections
// empty with the completeness score telling the story.
func (b *DossierBuilder) Build(ctx context.Context, campus string) (*models.CampusDossier, error) {
	start := time.Now()
	dossier := &models.CampusDossier{
		Campus: campus,
		Meta: models.RunMeta{
			RunID:       uuid.NewString(),
			GeneratedAt: start.UTC(),
		},
	}

	stages := []pipeline.Stage{
		{Name: "scorecard", Weight: 2, Run: func(ctx context.Context) error {
			sc, err := b.scorecard.Run(ctx, campus)
			if err != nil {
				return err
			}
			dossier.Scorecard = sc
			return nil
		}},
		{Name: "campus-intel", Weight: 2, Run: func(ctx context.Context) error {
			intel, err := b.campus.Run(ctx, campus)
			if err != nil {
				return err
			}
			dossier.Organizations = intel.Organizations
			dossier.ThirdPlaces = intel.ThirdPlaces
			dossier.Findings = intel.Findings
			dossier.Sources = intel.Sources
			return nil
		}},
		{Name: "events", Weight: 1, Run: func(ctx context.Context) error {
			events, err := b.events.Run(ctx, campus, dossier.Organizations)
			if err != nil {
				return err
			}
			dossier.Events = events
			return nil
		}},
		{Name: "contacts", Weight: 2, Run: func(ctx context.Context) error {
			result, err := b.saturation.Run(ctx, campus)
			if err != nil {
				return err
			}
			dossier.Contacts = result.Contacts
			return nil
		}},
		{Name: "assessment", Weight: 1, Run: func(ctx context.Context) error {
			assessment, err := b.assessment.Run(ctx, dossier)
			dossier.Assessment = assessment
			return err
		}},
	}

	result, err := b.runner.Run(ctx, stages)
	dossier.Meta.Duration = time.Since(start)
	dossier.Meta.Completeness = result.Completeness
	for _, s := range result.Stages {
		if s.State == pipeline.StateDone || s.State == pipeline.StateDegraded {
			dossier.Meta.Engines = append(dossier.Meta.Engines, s.Name)
		}
	}
	if err != nil {
		return dossier, err
	}
	return dossier, nil
}
