package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/krishija/campusintel/internal/llm"
	"github.com/krishija/campusintel/internal/models"
	"github.com/krishija/campusintel/internal/search"
)

// AgentRunner drives a tool-calling research loop. llm.Agent satisfies it.
type AgentRunner interface {
	Run(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ReconEngine runs the autonomous gatekeeper reconnaissance agent: the
// model decides which searches to run via the web_search tool and returns
// a dossier when it is satisfied.
type ReconEngine struct {
	agent AgentRunner
	deps  Deps
}

// NewReconEngine builds the engine around an existing agent.
func NewReconEngine(agent AgentRunner, deps Deps) *ReconEngine {
	return &ReconEngine{agent: agent, deps: deps}
}

// SearchTool exposes a Searcher as an agent tool. The result is flattened
// to an annotated text corpus, which is what the model consumes best.
func SearchTool(searcher search.Searcher) llm.Tool {
	return llm.Tool{
		Definition: llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "web_search",
				Description: "Search the web and return the top results as annotated text.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The search query.",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		Run: func(ctx context.Context, args string) (string, error) {
			var params struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(args), &params); err != nil {
				return "", fmt.Errorf("bad web_search arguments: %w", err)
			}
			resp, err := searcher.Search(ctx, params.Query)
			if err != nil {
				return "", err
			}
			corpus := search.BuildCorpus(resp)
			if corpus.Empty() {
				return "No results found.", nil
			}
			return corpus.Text, nil
		},
	}
}

// Run dispatches the agent for one university. city, when known, scopes
// the local ecosystem searches.
func (e *ReconEngine) Run(ctx context.Context, university, city string) (*models.ReconDossier, error) {
	userPrompt := fmt.Sprintf("Build the intelligence dossier for %q.", university)
	if strings.TrimSpace(city) != "" {
		userPrompt += fmt.Sprintf(" The university is located in %s; use this for all local ecosystem searches.", city)
	}

	e.deps.Logger.Info("recon agent dispatched", "university", university)
	final, err := e.agent.Run(ctx, reconSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("recon agent: %w", err)
	}

	att := e.deps.extractObject(final)
	if !att.OK() {
		// The agent answered in prose. Preserve what it learned instead of
		// discarding the whole run.
		e.deps.Logger.Warn("recon agent returned no structure",
			"university", university,
			"reason", att.Failure.Reason)
		return &models.ReconDossier{
			University:    university,
			ResearchNotes: models.StringPtr(att.Failure.Snippet),
		}, nil
	}

	var payload struct {
		University      string  `json:"university"`
		AthleticsDomain *string `json:"athletics_domain"`
		Gatekeepers     []struct {
			Name          *string `json:"name"`
			Title         *string `json:"title"`
			Email         *string `json:"email"`
			Phone         *string `json:"phone"`
			BioURL        *string `json:"bio_url"`
			ThoughtLeader bool    `json:"is_thought_leader"`
			Evidence      *string `json:"wom_evidence"`
			Seniority     *string `json:"seniority_level"`
			YearsAtCampus *string `json:"years_at_institution"`
		} `json:"gatekeepers"`
		LocalEcosystem []models.Clinic `json:"local_ecosystem"`
		ResearchNotes  *string         `json:"research_notes"`
	}
	if err := att.Decode(&payload); err != nil {
		return &models.ReconDossier{University: university}, nil
	}

	dossier := &models.ReconDossier{
		University:      university,
		AthleticsDomain: payload.AthleticsDomain,
		LocalEcosystem:  payload.LocalEcosystem,
		ResearchNotes:   payload.ResearchNotes,
	}
	for _, g := range payload.Gatekeepers {
		if g.Name == nil || strings.TrimSpace(*g.Name) == "" {
			continue
		}
		gk := models.Gatekeeper{
			Name:          strings.TrimSpace(*g.Name),
			Title:         g.Title,
			Email:         g.Email,
			Phone:         g.Phone,
			BioURL:        g.BioURL,
			ThoughtLeader: g.ThoughtLeader,
			Evidence:      g.Evidence,
			Seniority:     g.Seniority,
			YearsAtCampus: g.YearsAtCampus,
		}
		gk.EmailConfidence = models.ConfidenceNone
		if g.Email != nil && strings.Contains(*g.Email, "@") {
			if strings.Contains(strings.ToLower(*g.Email), ".edu") {
				gk.EmailConfidence = models.ConfidenceHigh
			} else {
				gk.EmailConfidence = models.ConfidenceMedium
			}
		} else {
			gk.Email = nil
		}
		dossier.Gatekeepers = append(dossier.Gatekeepers, gk)
	}

	e.deps.Logger.Info("recon complete",
		"university", university,
		"gatekeepers", len(dossier.Gatekeepers),
		"clinics", len(dossier.LocalEcosystem))
	return dossier, nil
}
