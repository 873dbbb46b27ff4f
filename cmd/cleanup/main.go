// Command cleanup removes persisted ingest runs, and their routed records,
// older than the configured retention period. It is intended to be invoked
// by an external cron job.
//
// Flags:
//
//	--retention-days  overrides database.retention_days
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/marineevidence/combinedmap/internal/adapter/postgres"
	"github.com/marineevidence/combinedmap/internal/adapter/postgres/run"
	"github.com/marineevidence/combinedmap/internal/app"
	"github.com/marineevidence/combinedmap/internal/config"
)

func main() {
	retentionFlag := flag.Int("retention-days", 0, "delete runs started more than N days ago")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if !cfg.Database.Enabled() {
		logger.Error("database is not configured")
		os.Exit(1)
	}

	retention := cfg.Database.RetentionDays
	if *retentionFlag > 0 {
		retention = *retentionFlag
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	runRepo := run.New(pool)

	threshold := time.Now().AddDate(0, 0, -retention)

	deleted, err := runRepo.DeleteOlderThan(ctx, threshold)
	if err != nil {
		logger.Error("delete old runs failed",
			slog.String("error", err.Error()),
			slog.Time("threshold", threshold),
		)
		os.Exit(1)
	}

	logger.Info("cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Time("threshold", threshold),
	)
}
