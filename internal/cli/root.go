// Package cli provides the command-line interface for campusintel.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/krishija/campusintel/internal/config"
	"github.com/krishija/campusintel/internal/engine"
	"github.com/krishija/campusintel/internal/llm"
	"github.com/krishija/campusintel/internal/metrics"
	"github.com/krishija/campusintel/internal/report"
	"github.com/krishija/campusintel/internal/search"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Built once in PersistentPreRunE, shared by all commands.
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	store      *report.Store

	// Research collaborators; nil for commands that only read saved runs.
	collector *metrics.Collector
	searcher  *search.Client
	generator *llm.Model
	scraper   *search.PageFetcher
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "campusintel",
	Short: "University marketing intelligence research",
	Long: `Campusintel researches university campuses for go-to-market planning:
quantitative scorecards, standout student organizations, upcoming events,
student contacts, and strategic assessments, assembled from web search and
an LLM into structured dossiers.

Results are saved as JSON run files and can be rendered to PDF, Markdown,
HTML, and CSV reports.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		store = report.NewStore(cfg.OutputDir, logger)

		// report and stats only read saved run files; they work without
		// research credentials.
		if cmd.Name() == "report" || cmd.Name() == "stats" {
			return nil
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		collector = metrics.NewCollector()
		searcher = search.NewClient(&cfg, collector, logger)
		scraper = search.NewPageFetcher(collector, logger)

		var err error
		generator, err = llm.NewModel(cmd.Context(), &cfg, collector, logger)
		if err != nil {
			return fmt.Errorf("init generator: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// engineDeps bundles the shared collaborators for the research engines.
func engineDeps() engine.Deps {
	return engine.Deps{
		Searcher:  searcher,
		Generator: generator,
		Scraper:   scraper,
		Logger:    logger,
		Collector: collector,
		Workers:   cfg.Workers,
	}
}

// snapshotOps returns the current metrics snapshot for embedding into a
// run file, and logs it for the debug trail.
func snapshotOps() *metrics.Snapshot {
	if collector == nil {
		return nil
	}
	snap := collector.Snapshot()
	logger.Debug("run metrics",
		"uptime_seconds", snap.UptimeSeconds,
		"searches", opCount(snap.Search),
		"generations", opCount(snap.Generate),
		"scrapes", opCount(snap.Scrape))
	return &snap
}

func opCount(op *metrics.OperationSnapshot) int64 {
	if op == nil {
		return 0
	}
	return op.Count
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(dossierCmd)
	rootCmd.AddCommand(scoutCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(reconCmd)
	rootCmd.AddCommand(prospectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
}
