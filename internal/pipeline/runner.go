package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/krishija/campusintel/internal/llm"
)

// State tracks one stage through its lifecycle. There is no failed terminal
// state: a stage that errors is recorded as degraded and the run proceeds.
type State string

const (
	StatePending  State = "pending"
	StateRunning  State = "running"
	StateDone     State = "done"
	StateDegraded State = "degraded"
)

// Stage is one unit of a research run. Run returns an error to mark the
// stage degraded; the runner still executes the stages after it.
type Stage struct {
	Name   string
	Weight float64
	Run    func(ctx context.Context) error
}

// StageStatus is the post-run record for one stage.
type StageStatus struct {
	Name     string
	State    State
	Err      error
	Duration time.Duration
}

// Result summarizes a finished run.
type Result struct {
	Stages       []StageStatus
	Completeness float64
	Duration     time.Duration
}

// Degraded reports whether any stage failed.
func (r Result) Degraded() bool {
	for _, s := range r.Stages {
		if s.State == StateDegraded {
			return true
		}
	}
	return false
}

// Runner executes stages in order with degraded-mode continuation.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a stage runner.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes every stage. Only two conditions abort early: context
// cancellation and a fatal API error, since neither leaves later stages any
// chance of succeeding. Completeness is the weight-normalized share of
// stages that finished clean.
func (r *Runner) Run(ctx context.Context, stages []Stage) (Result, error) {
	start := time.Now()
	statuses := make([]StageStatus, len(stages))
	weights := make([]float64, len(stages))
	for i, s := range stages {
		statuses[i] = StageStatus{Name: s.Name, State: StatePending}
		weights[i] = s.Weight
		if weights[i] <= 0 {
			weights[i] = 1
		}
	}

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return r.finish(start, statuses, weights), err
		}

		statuses[i].State = StateRunning
		r.logger.Info("stage started", "stage", stage.Name)

		stageStart := time.Now()
		err := stage.Run(ctx)
		statuses[i].Duration = time.Since(stageStart)

		if err != nil {
			statuses[i].State = StateDegraded
			statuses[i].Err = err
			if llm.IsFatal(err) || errors.Is(err, context.Canceled) {
				r.logger.Error("stage aborted run", "stage", stage.Name, "error", err)
				return r.finish(start, statuses, weights), err
			}
			r.logger.Warn("stage degraded, continuing", "stage", stage.Name, "error", err)
			continue
		}

		statuses[i].State = StateDone
		r.logger.Info("stage completed", "stage", stage.Name, "duration", statuses[i].Duration)
	}

	return r.finish(start, statuses, weights), nil
}

func (r *Runner) finish(start time.Time, statuses []StageStatus, weights []float64) Result {
	return Result{
		Stages:       statuses,
		Completeness: completeness(statuses, weights),
		Duration:     time.Since(start),
	}
}

func completeness(statuses []StageStatus, weights []float64) float64 {
	var total, done float64
	for i, s := range statuses {
		total += weights[i]
		if s.State == StateDone {
			done += weights[i]
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * done / total
}
