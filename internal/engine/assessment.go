package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/pipeline"
)

// AssessmentEngine produces the strategic readout over everything the
// other engines gathered.
type AssessmentEngine struct {
	deps Deps
}

// NewAssessmentEngine builds the engine.
func NewAssessmentEngine(deps Deps) *AssessmentEngine {
	return &AssessmentEngine{deps: deps}
}

// Run asks the generator for a tier judgment; if that fails it falls back
// to the deterministic heuristic so a dossier always carries an
// assessment.
func (e *AssessmentEngine) Run(ctx context.Context, d *models.CampusDossier) (*models.Assessment, error) {
	prompt, err := e.buildPrompt(d)
	if err != nil {
		return HeuristicAssessment(d), nil
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		e.deps.Logger.Warn("assessment generation failed, using heuristic", "error", err)
		return HeuristicAssessment(d), err
	}

	att := e.deps.extractObject(raw)
	if !att.OK() {
		return HeuristicAssessment(d), nil
	}

	var payload struct {
		Tier           *string  `json:"tier"`
		Reasoning      *string  `json:"reasoning"`
		FirstOutreach  *string  `json:"first_outreach_target"`
		KeyOpportunity []string `json:"key_opportunities"`
		Notes          *string  `json:"notes"`
	}
	if err := att.Decode(&payload); err != nil || payload.Tier == nil {
		return HeuristicAssessment(d), nil
	}

	return &models.Assessment{
		Tier:           payload.Tier,
		Reasoning:      payload.Reasoning,
		FirstOutreach:  payload.FirstOutreach,
		KeyOpportunity: payload.KeyOpportunity,
		Notes:          payload.Notes,
	}, nil
}

func (e *AssessmentEngine) buildPrompt(d *models.CampusDossier) (string, error) {
	quality := 0.0
	scorecardJSON := []byte("{}")
	if d.Scorecard != nil {
		quality = d.Scorecard.QualityScore()
		var err error
		scorecardJSON, err = json.Marshal(d.Scorecard)
		if err != nil {
			return "", err
		}
	}
	diamondsJSON, err := json.Marshal(d.Organizations)
	if err != nil {
		return "", err
	}
	contactsJSON, err := json.Marshal(d.Contacts)
	if err != nil {
		return "", err
	}
	eventsJSON, err := json.Marshal(d.Events)
	if err != nil {
		return "", err
	}

	return pipeline.Prompt(assessmentPrompt).Render(map[string]string{
		"campus":    d.Campus,
		"quality":   fmt.Sprintf("%.0f", quality),
		"scorecard": string(scorecardJSON),
		"diamonds":  string(diamondsJSON),
		"contacts":  string(contactsJSON),
		"events":    string(eventsJSON),
	})
}

// HeuristicAssessment is the deterministic tiering used when the
// generator cannot be consulted. Thresholds follow the growth playbook:
// Tier 1 needs strong data plus live opportunities.
func HeuristicAssessment(d *models.CampusDossier) *models.Assessment {
	quality := 0.0
	if d.Scorecard != nil {
		quality = d.Scorecard.QualityScore()
	}
	diamonds := len(d.Organizations)
	contacts := 0
	for _, c := range d.Contacts {
		if c.HasEmail() {
			contacts++
		}
	}
	opportunities := 0
	for _, ev := range d.Events {
		if ev.Opportunity != models.OpportunityNone {
			opportunities++
		}
	}

	var tier string
	switch {
	case quality >= 80 && diamonds >= 5 && (contacts >= 2 || opportunities >= 2):
		tier = "Tier 1 - Ready for GTM"
	case quality >= 60 && (diamonds >= 3 || contacts >= 1):
		tier = "Tier 2 - Needs Additional Research"
	default:
		tier = "Tier 3 - Insufficient Intelligence"
	}

	var first *string
	for _, c := range d.Contacts {
		if c.HasEmail() {
			first = models.StringPtr(fmt.Sprintf("%s (%s)", models.StringOr(c.Name, *c.Email), models.StringOr(c.Title, "contact")))
			break
		}
	}
	if first == nil && diamonds > 0 {
		first = models.StringPtr("Diamond org: " + d.Organizations[0].Name)
	}

	notes := fmt.Sprintf("Quantitative: %.0f%%, diamonds: %d, contacts with email: %d, opportunities: %d",
		quality, diamonds, contacts, opportunities)
	return &models.Assessment{
		Tier:          &tier,
		FirstOutreach: first,
		Notes:         &notes,
	}
}
