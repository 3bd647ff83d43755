// Package engine implements the research engines: each one is a short
// pipeline of search fan-out, generator synthesis, and structured
// extraction over one slice of campus intelligence.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/krishija/campusintel/internal/extract"
	"github.com/krishija/campusintel/internal/metrics"
	"github.com/krishija/campusintel/internal/search"
)

// Generator is the text-completion capability engines depend on.
// llm.Model satisfies it; tests use scripted stubs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Deps bundles the collaborators shared by every engine.
type Deps struct {
	Searcher  search.Searcher
	Generator Generator
	Scraper   search.Scraper
	Logger    *slog.Logger

	// Collector, when set, receives extraction counts. Engines work
	// without one.
	Collector *metrics.Collector

	// Workers bounds fan-out concurrency per batch.
	Workers int
}

func (d Deps) workers() int {
	if d.Workers <= 0 {
		return 4
	}
	return d.Workers
}

// extractObject parses raw as a JSON object and records the attempt.
func (d Deps) extractObject(raw string) extract.Attempt {
	start := time.Now()
	att := extract.Object(raw)
	d.recordExtract(start, att)
	return att
}

// extractList parses raw as a JSON array and records the attempt.
func (d Deps) extractList(raw string) extract.Attempt {
	start := time.Now()
	att := extract.List(raw)
	d.recordExtract(start, att)
	return att
}

func (d Deps) recordExtract(start time.Time, att extract.Attempt) {
	if d.Collector == nil {
		return
	}
	d.Collector.Record(metrics.OpExtract, time.Since(start), att.OK())
}
