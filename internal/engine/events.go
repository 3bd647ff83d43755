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

// The three universal event sources every campus has.
var eventSourceQueries = map[string]pipeline.Template{
	"university_calendar": pipeline.MustTemplate(`site:{slug}.edu events calendar upcoming`),
	"student_union":       pipeline.MustTemplate(`"{campus}" student activities programming events`),
	"athletics":           pipeline.MustTemplate(`site:{slug}.edu athletics schedule games events`),
}

// EventEngine discovers upcoming campus events and assigns each one a
// go-to-market play.
type EventEngine struct {
	deps Deps
}

// NewEventEngine builds the engine.
func NewEventEngine(deps Deps) *EventEngine {
	return &EventEngine{deps: deps}
}

// Run gathers event content from the universal sources, extracts events,
// and tags each with an opportunity. diamonds, when present, steer the
// tagger toward Targeted Friendship Fund plays.
func (e *EventEngine) Run(ctx context.Context, campus string, diamonds []models.Organization) ([]models.Event, error) {
	corpus, err := e.gatherEventContent(ctx, campus)
	if err != nil {
		return nil, err
	}
	if corpus.Empty() {
		e.deps.Logger.Warn("no event sources found", "campus", campus)
		return nil, nil
	}

	events, err := e.extractEvents(ctx, campus, corpus)
	if err != nil || len(events) == 0 {
		return events, err
	}

	return e.tagOpportunities(ctx, events, diamonds)
}

func (e *EventEngine) gatherEventContent(ctx context.Context, campus string) (search.Corpus, error) {
	vars := map[string]string{
		"campus": campus,
		"slug":   CampusSlug(campus),
	}

	var tasks []fanout.Task
	for name, tmpl := range eventSourceQueries {
		q, err := tmpl.Render(vars)
		if err != nil {
			return search.Corpus{}, err
		}
		tasks = append(tasks, fanout.Task{Key: name, Query: q})
	}

	outcomes, err := fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (*search.Response, error) {
		return e.deps.Searcher.Search(ctx, task.Query)
	}, fanout.Options{Workers: e.deps.workers(), MaxRetries: 1})
	if err != nil {
		return search.Corpus{}, err
	}

	responses := make([]*search.Response, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			responses = append(responses, o.Value)
		} else {
			e.deps.Logger.Debug("event source degraded", "source", o.Key, "error", o.Err)
		}
	}
	return search.BuildCorpus(responses...), nil
}

// rawEvent is the wire shape the prompts use.
type rawEvent struct {
	Name        string `json:"event_name"`
	HostingOrg  string `json:"hosting_org"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Type        string `json:"event_type"`
	Opportunity string `json:"opportunity,omitempty"`
}

func (e *EventEngine) extractEvents(ctx context.Context, campus string, corpus search.Corpus) ([]models.Event, error) {
	prompt, err := pipeline.Prompt(eventExtractionPrompt).Render(map[string]string{
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

	att := e.deps.extractList(raw)
	if !att.OK() {
		e.deps.Logger.Warn("event extraction failed", "campus", campus, "reason", att.Failure.Reason)
		return nil, nil
	}

	var rawEvents []rawEvent
	if err := att.Decode(&rawEvents); err != nil {
		return nil, nil
	}
	return toEvents(rawEvents), nil
}

func (e *EventEngine) tagOpportunities(ctx context.Context, events []models.Event, diamonds []models.Organization) ([]models.Event, error) {
	names := make([]string, len(diamonds))
	for i, d := range diamonds {
		names[i] = d.Name
	}

	eventsJSON, err := json.Marshal(eventsToRaw(events))
	if err != nil {
		return events, nil
	}
	diamondsJSON, err := json.Marshal(names)
	if err != nil {
		return events, nil
	}

	prompt, err := pipeline.Prompt(opportunityTaggerPrompt).Render(map[string]string{
		"diamonds": string(diamondsJSON),
		"events":   string(eventsJSON),
	})
	if err != nil {
		return events, nil
	}

	raw, err := e.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		// Untagged events are still useful; tagging is an enrichment.
		e.deps.Logger.Warn("opportunity tagging failed", "error", err)
		return events, nil
	}

	att := e.deps.extractList(raw)
	if !att.OK() {
		return events, nil
	}
	var tagged []rawEvent
	if err := att.Decode(&tagged); err != nil || len(tagged) == 0 {
		return events, nil
	}
	return toEvents(tagged), nil
}

func toEvents(raw []rawEvent) []models.Event {
	events := make([]models.Event, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		events = append(events, models.Event{
			Name:        strings.TrimSpace(r.Name),
			HostingOrg:  models.StringPtr(r.HostingOrg),
			Date:        models.StringPtr(r.Date),
			Location:    models.StringPtr(r.Location),
			Type:        models.StringPtr(r.Type),
			Opportunity: models.NormalizeOpportunity(r.Opportunity),
		})
	}
	return events
}

func eventsToRaw(events []models.Event) []rawEvent {
	raw := make([]rawEvent, len(events))
	for i, ev := range events {
		raw[i] = rawEvent{
			Name:       ev.Name,
			HostingOrg: models.StringOr(ev.HostingOrg, ""),
			Date:       models.StringOr(ev.Date, ""),
			Location:   models.StringOr(ev.Location, ""),
			Type:       models.StringOr(ev.Type, ""),
		}
	}
	return raw
}
