package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/krishija/campusintel/internal/llm"
)

func TestNewTemplate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain text", "no placeholders here", false},
		{"single placeholder", "{campus} student organizations", false},
		{"repeated placeholder", "{campus} clubs at {campus}", false},
		{"two placeholders", "{campus} {metric} statistics", false},
		{"stray open brace", "clubs at {campus", true},
		{"stray close brace", "clubs at campus}", true},
		{"empty braces", "clubs at {}", true},
		{"bad name", "clubs at {9lives}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplate(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTemplate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestTemplate_Render(t *testing.T) {
	tmpl := MustTemplate("{campus} {metric} site:.edu")

	got, err := tmpl.Render(map[string]string{"campus": "Example University", "metric": "retention rate"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Example University retention rate site:.edu" {
		t.Errorf("Render() = %q", got)
	}

	if _, err := tmpl.Render(map[string]string{"campus": "Example University"}); err == nil {
		t.Error("Render() with missing var should error")
	}
}

func TestPrompt_ToleratesJSONBraces(t *testing.T) {
	p := Prompt(`Extract facts about {campus}. Return ONLY {"value": null}.`)

	got, err := p.Render(map[string]string{"campus": "Example University"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != `Extract facts about Example University. Return ONLY {"value": null}.` {
		t.Errorf("Render() = %q", got)
	}

	if _, err := p.Render(nil); err == nil {
		t.Error("Render() with unbound placeholder should error")
	}
}

func TestTemplate_Placeholders(t *testing.T) {
	tmpl := MustTemplate("{campus} events hosted by {campus} orgs in {term}")
	got := tmpl.Placeholders()
	if len(got) != 2 || got[0] != "campus" || got[1] != "term" {
		t.Errorf("Placeholders() = %v", got)
	}
}

func testRunner() *Runner {
	return NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunner_DegradedContinuation(t *testing.T) {
	var ran []string
	stage := func(name string, err error) Stage {
		return Stage{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	res, err := testRunner().Run(context.Background(), []Stage{
		stage("scorecard", nil),
		stage("events", errors.New("empty corpus")),
		stage("contacts", nil),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ran) != 3 {
		t.Fatalf("stages ran: %v, want all three", ran)
	}
	if !res.Degraded() {
		t.Error("result should be degraded")
	}
	if res.Stages[1].State != StateDegraded || res.Stages[0].State != StateDone {
		t.Errorf("states: %+v", res.Stages)
	}
	want := 100.0 * 2 / 3
	if diff := res.Completeness - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("completeness = %v, want %v", res.Completeness, want)
	}
}

func TestRunner_FatalAborts(t *testing.T) {
	var ran []string
	res, err := testRunner().Run(context.Background(), []Stage{
		{Name: "a", Run: func(context.Context) error { ran = append(ran, "a"); return nil }},
		{Name: "b", Run: func(context.Context) error {
			ran = append(ran, "b")
			return fmt.Errorf("generate: %w", llm.ErrFatalAPI)
		}},
		{Name: "c", Run: func(context.Context) error { ran = append(ran, "c"); return nil }},
	})
	if err == nil {
		t.Fatal("expected fatal error to surface")
	}
	if len(ran) != 2 {
		t.Errorf("stages ran: %v, fatal error must stop the run", ran)
	}
	if res.Stages[2].State != StatePending {
		t.Errorf("stage c state = %s, want pending", res.Stages[2].State)
	}
}

func TestRunner_Weights(t *testing.T) {
	res, err := testRunner().Run(context.Background(), []Stage{
		{Name: "core", Weight: 3, Run: func(context.Context) error { return nil }},
		{Name: "extra", Weight: 1, Run: func(context.Context) error { return errors.New("x") }},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Completeness != 75 {
		t.Errorf("completeness = %v, want 75", res.Completeness)
	}
}
