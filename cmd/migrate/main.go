// Command migrate applies the embedded schema migrations to the configured
// database.
//
// Flags:
//
//	--down    roll back the most recent migration instead of applying
//	--status  print the state of every migration and exit
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/marineevidence/combinedmap/internal/app"
	"github.com/marineevidence/combinedmap/internal/config"
	"github.com/marineevidence/combinedmap/migrations"
)

func main() {
	downFlag := flag.Bool("down", false, "roll back the most recent migration")
	statusFlag := flag.Bool("status", false, "print migration status")
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		logger.Error("create migration provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch {
	case *statusFlag:
		statuses, err := provider.Status(ctx)
		if err != nil {
			logger.Error("migration status", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, s := range statuses {
			logger.Info("migration",
				slog.Int64("version", s.Source.Version),
				slog.String("file", s.Source.Path),
				slog.String("state", string(s.State)),
			)
		}

	case *downFlag:
		res, err := provider.Down(ctx)
		if err != nil {
			logger.Error("migrate down failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migration rolled back",
			slog.Int64("version", res.Source.Version),
			slog.Duration("duration", res.Duration),
		)

	default:
		results, err := provider.Up(ctx)
		if err != nil {
			logger.Error("migrate up failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, r := range results {
			logger.Info("migration applied",
				slog.Int64("version", r.Source.Version),
				slog.String("file", r.Source.Path),
				slog.Duration("duration", r.Duration),
			)
		}
		logger.Info("schema up to date", slog.Int("applied", len(results)))
	}
}
