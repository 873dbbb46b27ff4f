// Command ingest normalizes one provider attribute table for the combined
// habitat map. Records are routed to the FormattedLayers and ToCheck
// containers under the configured output directory and, when a database is
// configured, the run and its partitions are persisted.
//
// Flags:
//
//	--path         ingestion path: new, previous, modelled or evbase
//	--input        attribute table exported from the provider layer (CSV)
//	--public-uids  optional CSV of publicly accessible NE_UID values
//	--dry-run      route records without writing layers or persisting
//	--strict       exit 1 when any record is flagged or rejected
//	--config       path to YAML config file (overrides CONFIG_PATH)
//
// Exit codes: 0 = success, 1 = error or, with --strict, records need review,
// 2 = invalid flags.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marineevidence/combinedmap/internal/adapter/postgres"
	runrepo "github.com/marineevidence/combinedmap/internal/adapter/postgres/run"
	"github.com/marineevidence/combinedmap/internal/app"
	"github.com/marineevidence/combinedmap/internal/app/ingest"
	"github.com/marineevidence/combinedmap/internal/app/ingest/survey"
	"github.com/marineevidence/combinedmap/internal/config"
)

// Compile-time interface assertions.
var (
	_ ingest.RunStore  = (*runrepo.Repo)(nil)
	_ ingest.TxManager = (*postgres.TxManager)(nil)
	_ ingest.Sink      = (*survey.Writer)(nil)
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	pathFlag := fs.String("path", "", "ingestion path: new, previous, modelled, evbase")
	inputFlag := fs.String("input", "", "attribute table to ingest (CSV)")
	publicFlag := fs.String("public-uids", "", "CSV of publicly accessible NE_UID values")
	dryRunFlag := fs.Bool("dry-run", false, "route records without writing layers or persisting")
	strictFlag := fs.Bool("strict", false, "exit 1 when records are flagged or rejected")
	configFlag := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("starting ingest", slog.String("version", app.BuildVersion()))

	path, err := ingest.ParsePath(*pathFlag)
	if err != nil {
		logger.Error("invalid --path", slog.String("error", err.Error()))
		return 1
	}
	if *inputFlag == "" {
		logger.Error("--input is required")
		return 1
	}
	spec, err := ingest.Spec(path, exclusionLists(cfg.Engine.Exclusions))
	if err != nil {
		logger.Error("build path settings", slog.String("error", err.Error()))
		return 1
	}

	// Reference data errors stop the run before any record is read.
	engine, err := app.NewEngine(cfg.Engine)
	if err != nil {
		logger.Error("load reference data", slog.String("error", err.Error()))
		return 1
	}

	records, err := survey.ParseFile(*inputFlag, survey.ParseOptions{Normalize: spec.Normalize})
	if err != nil {
		logger.Error("parse input", slog.String("error", err.Error()))
		return 1
	}

	var public map[string]bool
	if *publicFlag != "" {
		public, err = survey.ParseUIDFile(*publicFlag)
		if err != nil {
			logger.Error("parse public uids", slog.String("error", err.Error()))
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	var (
		store ingest.RunStore
		txm   ingest.TxManager
	)
	if cfg.Database.Enabled() && !*dryRunFlag {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Error("connect to database", slog.String("error", err.Error()))
			return 1
		}
		defer pool.Close()

		store = runrepo.New(pool)
		txm = postgres.NewTxManager(pool)
	}

	pipeline := ingest.NewPipeline(logger, engine, survey.NewWriter(cfg.Output.Dir), store, txm, ingest.Config{
		DryRun: *dryRunFlag,
	})

	report, err := pipeline.Run(ctx, spec, ingest.Batch{
		Source:     *inputFlag,
		Records:    records,
		PublicUIDs: public,
	})
	if err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		return 1
	}

	if report.HasErrors() {
		logger.Warn("pipeline completed with errors")
		return 1
	}
	if *strictFlag && report.NeedsReview() {
		logger.Warn("records need review",
			slog.Int("flagged", len(report.Result.FlaggedForReview)),
			slog.Int("rejected", len(report.Result.RejectedIncorrect)),
		)
		return 1
	}

	logger.Info("pipeline completed successfully", slog.Duration("duration", report.Duration))
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func exclusionLists(cfg config.ExclusionConfig) ingest.ExclusionLists {
	return ingest.ExclusionLists{
		PreviousGUI:   cfg.PreviousGUI,
		EvidenceGUI:   cfg.EvidenceGUI,
		EvidenceNEUID: cfg.EvidenceNEUID,
	}
}
