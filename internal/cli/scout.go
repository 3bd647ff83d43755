package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/engine"
	"github.com/krishija/campusintel/internal/fanout"
	"github.com/krishija/campusintel/internal/llm"
	"github.com/krishija/campusintel/internal/models"
)

var scoutCmd = &cobra.Command{
	Use:   "scout <campus>",
	Short: "Quick scan: scorecard, diamonds, events, inroads contacts",
	Long: `Run the fast scouting scan for one campus: the quantitative scorecard
and the diamond organization hunt in parallel, then event intelligence
against the found organizations, inroads contacts for the top
organizations, then the strategic assessment.

Lighter than 'dossier' - no contact saturation, no plan-and-execute
research. Use it to triage a campus before committing to a full run.

Examples:
  campusintel scout "University of Vermont"`,
	Args: cobra.ExactArgs(1),
	RunE: runScout,
}

func runScout(cmd *cobra.Command, args []string) error {
	campus := args[0]
	ctx := cmd.Context()
	deps := engineDeps()
	start := time.Now()

	fmt.Printf("Scouting %s...\n", campus)

	var (
		wg     sync.WaitGroup
		sc     *models.Scorecard
		orgs   []models.Organization
		scErr  error
		orgErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sc, scErr = engine.NewScorecardEngine(deps).Run(ctx, campus)
	}()
	go func() {
		defer wg.Done()
		orgs, orgErr = engine.NewDiamondEngine(deps).Run(ctx, campus)
	}()
	wg.Wait()

	for _, err := range []error{scErr, orgErr} {
		if llm.IsFatal(err) {
			return err
		}
		if err != nil {
			logger.Warn("scout phase degraded", "campus", campus, "error", err)
		}
	}

	events, err := engine.NewEventEngine(deps).Run(ctx, campus, orgs)
	if llm.IsFatal(err) {
		return err
	}
	if err != nil {
		logger.Warn("event intelligence degraded", "campus", campus, "error", err)
	}

	contacts, err := inroadsContacts(ctx, deps, campus, orgs)
	if llm.IsFatal(err) {
		return err
	}
	if err != nil {
		logger.Warn("inroads contacts degraded", "campus", campus, "error", err)
	}

	dossier := &models.CampusDossier{
		Campus:        campus,
		Scorecard:     sc,
		Organizations: orgs,
		Events:        events,
		Contacts:      contacts,
		Meta: models.RunMeta{
			RunID:       uuid.NewString(),
			GeneratedAt: start.UTC(),
		},
	}

	assessment, err := engine.NewAssessmentEngine(deps).Run(ctx, dossier)
	if llm.IsFatal(err) {
		return err
	}
	dossier.Assessment = assessment
	dossier.Meta.Duration = time.Since(start)
	dossier.Meta.Completeness = scoutCompleteness(scErr, orgErr, sc, orgs, events, contacts)
	dossier.Meta.Engines = []string{"scorecard", "diamonds", "events", "contacts", "assessment"}
	dossier.Meta.Ops = snapshotOps()

	path, err := store.SaveDossier(dossier)
	if err != nil {
		return err
	}

	printDossierSummary(dossier, path)
	return nil
}

// inroadsMaxOrgs caps how many diamond organizations get the full
// contact-finder treatment per scan.
const inroadsMaxOrgs = 5

// inroadsContacts runs the contact finder for each of the top diamond
// organizations and keeps the records that actually name someone.
func inroadsContacts(ctx context.Context, deps engine.Deps, campus string, orgs []models.Organization) ([]models.ContactRecord, error) {
	if len(orgs) > inroadsMaxOrgs {
		orgs = orgs[:inroadsMaxOrgs]
	}
	if len(orgs) == 0 {
		return nil, nil
	}

	finder := engine.NewContactFinder(deps)
	tasks := make([]fanout.Task, len(orgs))
	for i, org := range orgs {
		tasks[i] = fanout.Task{Key: org.Name, Query: org.Name}
	}

	outcomes, err := fanout.Run(ctx, tasks, func(ctx context.Context, task fanout.Task) (models.ContactRecord, error) {
		return finder.Find(ctx, task.Query, campus)
	}, fanout.Options{Workers: deps.Workers})
	if err != nil {
		return nil, err
	}

	var contacts []models.ContactRecord
	for _, o := range outcomes {
		if !o.OK() {
			if llm.IsFatal(o.Err) {
				return nil, o.Err
			}
			logger.Warn("inroads lookup degraded", "org", o.Key, "error", o.Err)
			continue
		}
		if o.Value.Name != nil || o.Value.Email != nil {
			contacts = append(contacts, o.Value)
		}
	}
	return models.DedupeContacts(contacts), nil
}

// scoutCompleteness counts the scan phases that yielded data. The
// assessment always runs (it has a heuristic fallback), so it is not
// counted.
func scoutCompleteness(scErr, orgErr error, sc *models.Scorecard, orgs []models.Organization, events []models.Event, contacts []models.ContactRecord) float64 {
	done := 0
	if scErr == nil && sc != nil {
		done++
	}
	if orgErr == nil && len(orgs) > 0 {
		done++
	}
	if len(events) > 0 {
		done++
	}
	if len(contacts) > 0 {
		done++
	}
	return 100 * float64(done) / 4
}
