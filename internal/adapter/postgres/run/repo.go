// Package run persists ingestion runs and their routed habitat records.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/marineevidence/combinedmap/internal/adapter/postgres"
	"github.com/marineevidence/combinedmap/internal/domain"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const runColumns = `id, path, source, status, input_count, excluded_count,
	formatted_count, flagged_count, rejected_count, started_at, finished_at`

// Repo provides run persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a run repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// CreateRun inserts the run row.
func (r *Repo) CreateRun(ctx context.Context, run domain.IngestRun) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO ingest_runs (id, path, source, status, input_count, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Path, run.Source, string(run.Status), run.Input, run.StartedAt,
	)
	return postgres.MapError(err, "ingest_run", run.ID)
}

// FinishRun records the final status and partition counts of a run.
func (r *Repo) FinishRun(ctx context.Context, run domain.IngestRun) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE ingest_runs
		 SET status = $2, excluded_count = $3, formatted_count = $4, flagged_count = $5,
		     rejected_count = $6, finished_at = $7
		 WHERE id = $1`,
		run.ID, string(run.Status), run.Excluded,
		run.Counts[domain.PartitionFormattedCorrect],
		run.Counts[domain.PartitionFlaggedForReview],
		run.Counts[domain.PartitionRejectedIncorrect],
		run.FinishedAt,
	)
	if err != nil {
		return postgres.MapError(err, "ingest_run", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "ingest_run", run.ID)
	}
	return nil
}

// BulkInsertRecords inserts routed records using pgx.Batch and returns the
// number of inserted rows.
func (r *Repo) BulkInsertRecords(ctx context.Context, records []domain.StoredRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range records {
		rec := s.Record
		batch.Queue(
			`INSERT INTO habitat_records (id, run_id, partition, layer, polygon, primary_code, top_level_class,
			                              provenance, attributes, reason, corrections)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.ID, s.RunID, string(s.Partition), s.Layer, rec.Polygon, rec.PrimaryCode, rec.TopLevelClass,
			orEmpty(rec.Provenance), orEmpty(rec.Attributes), rec.Reason, orEmptySlice(rec.Corrections),
		)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return inserted, postgres.MapError(err, "habitat_record batch for run", records[0].RunID)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// DeleteOlderThan removes runs started before threshold together with their
// records and returns the number of deleted runs.
func (r *Repo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	sql, args, err := psql.Delete("ingest_runs").
		Where(squirrel.Lt{"started_at": threshold}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete runs before %s: %w", threshold.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetRun returns one run by ID.
func (r *Repo) GetRun(ctx context.Context, id uuid.UUID) (domain.IngestRun, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+runColumns+` FROM ingest_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err != nil {
		return domain.IngestRun{}, postgres.MapError(err, "ingest_run", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. An empty path lists
// every path.
func (r *Repo) ListRuns(ctx context.Context, path string, limit uint64) ([]domain.IngestRun, error) {
	query := psql.Select(runColumns).From("ingest_runs").OrderBy("started_at DESC", "id")
	if path != "" {
		query = query.Where(squirrel.Eq{"path": path})
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListRecords returns the records of a run in partition and polygon order.
func (r *Repo) ListRecords(ctx context.Context, runID uuid.UUID, filter domain.RecordFilter) ([]domain.StoredRecord, error) {
	query := psql.Select(
		"id", "run_id", "partition", "layer", "polygon", "primary_code", "top_level_class",
		"provenance", "attributes", "reason", "corrections",
	).From("habitat_records").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("partition", "polygon", "id")

	if filter.Partition != "" {
		query = query.Where(squirrel.Eq{"partition": string(filter.Partition)})
	}
	if filter.Layer != "" {
		query = query.Where(squirrel.Eq{"layer": filter.Layer})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "habitat_records for run", runID)
	}
	defer rows.Close()

	var out []domain.StoredRecord
	for rows.Next() {
		var (
			s         domain.StoredRecord
			partition string
		)
		if err := rows.Scan(
			&s.ID, &s.RunID, &partition, &s.Layer, &s.Record.Polygon, &s.Record.PrimaryCode,
			&s.Record.TopLevelClass, &s.Record.Provenance, &s.Record.Attributes, &s.Record.Reason,
			&s.Record.Corrections,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		s.Partition = domain.Partition(partition)
		if len(s.Record.Corrections) == 0 {
			s.Record.Corrections = nil
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (domain.IngestRun, error) {
	var (
		run                          domain.IngestRun
		status                       string
		formatted, flagged, rejected int
	)
	if err := row.Scan(
		&run.ID, &run.Path, &run.Source, &status, &run.Input, &run.Excluded,
		&formatted, &flagged, &rejected, &run.StartedAt, &run.FinishedAt,
	); err != nil {
		return domain.IngestRun{}, err
	}
	run.Status = domain.RunStatus(status)
	run.Counts = map[domain.Partition]int{
		domain.PartitionFormattedCorrect:  formatted,
		domain.PartitionFlaggedForReview:  flagged,
		domain.PartitionRejectedIncorrect: rejected,
	}
	return run, nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
