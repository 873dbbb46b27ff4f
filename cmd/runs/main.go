// Command runs inspects persisted ingest runs. Without --run it lists the
// most recent runs. With --run it exports that run's flagged_for_review and
// rejected_incorrect records back into ToCheck layers, so provider queries
// can be raised from a past run without re-ingesting its input.
//
// Flags:
//
//	--path   only list runs of this ingestion path
//	--limit  maximum number of runs listed (default 20)
//	--run    run ID whose review records are exported
//	--out    export directory (default output.dir)
//
// Exit codes: 0 = success, 1 = error, 2 = invalid flags.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/marineevidence/combinedmap/internal/adapter/postgres"
	runrepo "github.com/marineevidence/combinedmap/internal/adapter/postgres/run"
	"github.com/marineevidence/combinedmap/internal/app"
	"github.com/marineevidence/combinedmap/internal/app/ingest/survey"
	"github.com/marineevidence/combinedmap/internal/config"
	"github.com/marineevidence/combinedmap/internal/domain"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	pathFlag := fs.String("path", "", "only list runs of this ingestion path")
	limitFlag := fs.Uint64("limit", 20, "maximum number of runs listed")
	runFlag := fs.String("run", "", "run ID whose review records are exported")
	outFlag := fs.String("out", "", "export directory (default output.dir)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var runID uuid.UUID
	if *runFlag != "" {
		id, err := uuid.Parse(*runFlag)
		if err != nil {
			log.Printf("invalid --run: %v", err)
			return 2
		}
		runID = id
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	logger := app.NewLogger(cfg.Log)

	if !cfg.Database.Enabled() {
		logger.Error("database is not configured")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		return 1
	}
	defer pool.Close()

	repo := runrepo.New(pool)

	if runID == uuid.Nil {
		return listRuns(ctx, logger, repo, *pathFlag, *limitFlag)
	}

	dir := cfg.Output.Dir
	if *outFlag != "" {
		dir = *outFlag
	}
	return exportReview(ctx, logger, repo, survey.NewWriter(dir), runID)
}

func listRuns(ctx context.Context, logger *slog.Logger, repo *runrepo.Repo, path string, limit uint64) int {
	runs, err := repo.ListRuns(ctx, path, limit)
	if err != nil {
		logger.Error("list runs", slog.String("error", err.Error()))
		return 1
	}
	for _, r := range runs {
		logger.Info("run",
			slog.String("id", r.ID.String()),
			slog.String("path", r.Path),
			slog.String("source", r.Source),
			slog.String("status", string(r.Status)),
			slog.Int("input", r.Input),
			slog.Int("excluded", r.Excluded),
			slog.Int("formatted", r.Counts[domain.PartitionFormattedCorrect]),
			slog.Int("flagged", r.Counts[domain.PartitionFlaggedForReview]),
			slog.Int("rejected", r.Counts[domain.PartitionRejectedIncorrect]),
			slog.Time("started_at", r.StartedAt),
		)
	}
	logger.Info("runs listed", slog.Int("count", len(runs)))
	return 0
}

func exportReview(ctx context.Context, logger *slog.Logger, repo *runrepo.Repo, w *survey.Writer, id uuid.UUID) int {
	r, err := repo.GetRun(ctx, id)
	if err != nil {
		logger.Error("get run", slog.String("error", err.Error()))
		return 1
	}
	runLog := logger.With(slog.String("run", id.String()), slog.String("path", r.Path))

	for _, part := range []domain.Partition{domain.PartitionFlaggedForReview, domain.PartitionRejectedIncorrect} {
		records, err := repo.ListRecords(ctx, id, domain.RecordFilter{Partition: part})
		if err != nil {
			runLog.Error("list records", slog.String("partition", string(part)), slog.String("error", err.Error()))
			return 1
		}

		layers := groupByLayer(records)
		for _, name := range slices.Sorted(maps.Keys(layers)) {
			if err := w.WriteLayer(ctx, part.Container(), name, layers[name]); err != nil {
				runLog.Error("write layer", slog.String("layer", name), slog.String("error", err.Error()))
				return 1
			}
			runLog.Info("layer exported",
				slog.String("layer", name),
				slog.Int("records", len(layers[name])),
				slog.String("file", w.Path(part.Container(), name)),
			)
		}
	}
	return 0
}

// groupByLayer collects stored records per output layer, keeping their order.
func groupByLayer(records []domain.StoredRecord) map[string][]domain.HabitatRecord {
	out := make(map[string][]domain.HabitatRecord)
	for _, s := range records {
		out[s.Layer] = append(out[s.Layer], s.Record)
	}
	return out
}
