package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/krishija/campusintel/internal/engine"
	"github.com/krishija/campusintel/internal/fanout"
	"github.com/krishija/campusintel/internal/llm"
	"github.com/krishija/campusintel/internal/models"
)

// cachedQualityFloor is the minimum quality score a previously saved
// scorecard needs before the batch reuses it instead of re-scoring.
const cachedQualityFloor = 50.0

var prospectCmd = &cobra.Command{
	Use:   "prospect <targets-file>",
	Short: "Batch prospecting across a target list",
	Long: `Run the three-phase prospecting pipeline over a list of campuses:

  1. Score every target in parallel (reusing recent saved scorecards
     with good data).
  2. Rank targets by scorecard quality.
  3. Deep-dive the top N: contact saturation and strategic assessment.

The targets file is either plain text (one campus per line, # comments)
or a YAML campaign file:

  targets:
    - University of Vermont
    - Texas Christian University
  workers: 4
  top_n: 3
  skip_contacts: false

Examples:
  campusintel prospect targets.txt
  campusintel prospect campaign.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProspect,
}

// campaign is the batch configuration. Zero values fall back to the
// process config.
type campaign struct {
	Targets      []string `yaml:"targets"`
	Workers      int      `yaml:"workers"`
	TopN         int      `yaml:"top_n"`
	SkipContacts bool     `yaml:"skip_contacts"`
}

func loadCampaign(path string) (campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return campaign{}, fmt.Errorf("read targets file: %w", err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var c campaign
		if err := yaml.Unmarshal(data, &c); err != nil {
			return campaign{}, fmt.Errorf("parse campaign file: %w", err)
		}
		if len(c.Targets) == 0 {
			return campaign{}, fmt.Errorf("campaign file %s lists no targets", path)
		}
		return c, nil
	}

	var c campaign
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c.Targets = append(c.Targets, line)
	}
	if len(c.Targets) == 0 {
		return campaign{}, fmt.Errorf("targets file %s is empty", path)
	}
	return c, nil
}

type scoredTarget struct {
	campus    string
	scorecard *models.Scorecard
	quality   float64
}

func runProspect(cmd *cobra.Command, args []string) error {
	camp, err := loadCampaign(args[0])
	if err != nil {
		return err
	}

	workers := camp.Workers
	if workers <= 0 {
		workers = cfg.Workers
	}
	topN := camp.TopN
	if topN <= 0 {
		topN = cfg.TopTargets
	}

	deps := engineDeps()
	deps.Workers = workers
	ctx := cmd.Context()

	fmt.Printf("Prospecting %d targets (top %d get the deep dive)...\n\n", len(camp.Targets), topN)

	ranked, err := scoreTargets(ctx, deps, camp.Targets, workers)
	if err != nil {
		return err
	}
	printRanking(ranked)

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return deepDive(ctx, deps, ranked, camp.SkipContacts)
}

// scoreTargets runs phase 1 and 2: parallel scoring, then ranking by
// scorecard quality. Targets whose scoring failed outright are dropped
// from the ranking with a warning.
func scoreTargets(ctx context.Context, deps engine.Deps, targets []string, workers int) ([]scoredTarget, error) {
	tasks := make([]fanout.Task, len(targets))
	for i, campus := range targets {
		tasks[i] = fanout.Task{Key: campus, Query: campus}
	}

	tracker := fanout.NewTracker(len(tasks))
	scorer := engine.NewScorecardEngine(deps)

	var outcomes []fanout.Outcome[*models.Scorecard]
	work := func() error {
		var err error
		outcomes, err = fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (*models.Scorecard, error) {
			if sc, ok := store.LatestScorecard(task.Query, cachedQualityFloor); ok {
				return sc, nil
			}
			return scorer.Run(ctx, task.Query)
		}, fanout.Options{Workers: workers, Tracker: tracker})
		return err
	}
	if err := runWithProgress("Scoring", tracker, work); err != nil {
		return nil, err
	}

	ranked := make([]scoredTarget, 0, len(outcomes))
	for _, o := range outcomes {
		if llm.IsFatal(o.Err) {
			// Quota or credential exhaustion poisons the whole batch.
			return nil, o.Err
		}
		if !o.OK() {
			logger.Warn("target scoring failed", "campus", o.Key, "error", o.Err)
			continue
		}
		ranked = append(ranked, scoredTarget{
			campus:    o.Key,
			scorecard: o.Value,
			quality:   o.Value.QualityScore(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].quality > ranked[j].quality
	})
	return ranked, nil
}

func printRanking(ranked []scoredTarget) {
	fmt.Printf("\nRanking\n")
	fmt.Printf("═══════════════════════════════════════\n")
	for i, t := range ranked {
		fmt.Printf("%2d. %-40s quality %3.0f%%\n", i+1, t.campus, t.quality)
	}
	fmt.Println()
}

// deepDive runs phase 3 for the winners: contact saturation plus the
// strategic assessment, each saved as its own run file.
func deepDive(ctx context.Context, deps engine.Deps, targets []scoredTarget, skipContacts bool) error {
	saturation := engine.NewSaturationEngine(deps)
	assessor := engine.NewAssessmentEngine(deps)

	for i, target := range targets {
		fmt.Printf("Deep dive %d/%d: %s\n", i+1, len(targets), target.campus)
		start := time.Now()

		dossier := &models.CampusDossier{
			Campus:    target.campus,
			Scorecard: target.scorecard,
			Meta: models.RunMeta{
				RunID:       uuid.NewString(),
				GeneratedAt: start.UTC(),
				Engines:     []string{"scorecard", "assessment"},
			},
		}

		completeness := 100.0
		if !skipContacts {
			result, err := saturation.Run(ctx, target.campus)
			switch {
			case llm.IsFatal(err):
				return err
			case err != nil:
				logger.Warn("contact sourcing degraded", "campus", target.campus, "error", err)
				completeness = 50
			default:
				dossier.Contacts = result.Contacts
				dossier.Meta.Engines = append(dossier.Meta.Engines, "saturation")
			}
		}

		assessment, err := assessor.Run(ctx, dossier)
		if llm.IsFatal(err) {
			return err
		}
		dossier.Assessment = assessment
		dossier.Meta.Duration = time.Since(start)
		dossier.Meta.Completeness = completeness
		dossier.Meta.Ops = snapshotOps()

		path, err := store.SaveDossier(dossier)
		if err != nil {
			return err
		}
		tier := "untiered"
		if assessment != nil && assessment.Tier != nil {
			tier = *assessment.Tier
		}
		fmt.Printf("  %s, %d contacts, saved to %s\n\n", tier, len(dossier.Contacts), path)
	}

	return nil
}
