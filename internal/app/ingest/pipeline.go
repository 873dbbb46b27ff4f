package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marineevidence/combinedmap/internal/domain"
	"github.com/marineevidence/combinedmap/internal/habitat"
)

// Config holds pipeline settings.
type Config struct {
	DryRun    bool
	BatchSize int
}

// Batch is one input table.
type Batch struct {
	// Source names the input, typically its file path.
	Source  string
	Records []domain.HabitatRecord
	// PublicUIDs, when set, counts records whose NE_UID is publicly accessible.
	PublicUIDs map[string]bool
}

// Pipeline runs ingestion paths against a shared Engine.
type Pipeline struct {
	log    *slog.Logger
	engine *habitat.Engine
	sink   Sink
	store  RunStore
	tx     TxManager
	cfg    Config
	now    func() time.Time
}

// NewPipeline creates a Pipeline. store and tx may be nil, which disables
// run persistence.
func NewPipeline(log *slog.Logger, engine *habitat.Engine, sink Sink, store RunStore, tx TxManager, cfg Config) *Pipeline {
	return &Pipeline{
		log:    log,
		engine: engine,
		sink:   sink,
		store:  store,
		tx:     tx,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run executes spec over batch. Per-record defects never fail the run; write
// and persistence failures are recorded on the Report. The error return is
// reserved for canceled contexts and engine invariant violations.
func (p *Pipeline) Run(ctx context.Context, spec PathSpec, batch Batch) (*Report, error) {
	start := p.now()
	report := &Report{
		RunID:  uuid.New(),
		Path:   spec.Path,
		Source: batch.Source,
		DryRun: p.cfg.DryRun,
		Input:  len(batch.Records),
	}
	log := p.log.With(slog.String("path", string(spec.Path)), slog.String("run_id", report.RunID.String()))
	log.Info("starting run", slog.String("source", batch.Source), slog.Int("records", report.Input))

	run := domain.IngestRun{
		ID:        report.RunID,
		Path:      string(spec.Path),
		Source:    batch.Source,
		Status:    domain.RunStatusRunning,
		Input:     report.Input,
		StartedAt: start,
	}
	persist := p.store != nil && !p.cfg.DryRun
	if persist {
		if err := p.store.CreateRun(ctx, run); err != nil {
			report.PersistErr = fmt.Errorf("create run: %w", err)
			log.Warn("run persistence disabled", slog.String("error", err.Error()))
			persist = false
		}
	}

	records := make([]domain.HabitatRecord, len(batch.Records))
	for i, rec := range batch.Records {
		records[i] = rec.Clone()
	}
	Bootstrap(records)
	for _, d := range spec.Derive {
		d.Apply(records)
		log.Debug("derivation applied", slog.String("derivation", d.Name))
	}

	kept, excluded := filter(records, spec.Exclusions)
	report.Excluded = excluded
	if len(excluded) > 0 {
		log.Info("records excluded by provenance", slog.Int("excluded", len(excluded)))
	}
	if batch.PublicUIDs != nil {
		for _, rec := range kept {
			if batch.PublicUIDs[rec.Source(domain.ColumnNEUID)] {
				report.Public++
			}
		}
		log.Info("public records", slog.Int("public", report.Public))
	}

	if err := ctx.Err(); err != nil {
		p.fail(ctx, log, run, persist)
		return report, err
	}

	res, err := p.engine.Run(kept, habitat.RunOptions{Match: spec.Match, Correct: spec.Correct})
	report.Result = res
	if err != nil {
		p.fail(ctx, log, run, persist)
		return report, fmt.Errorf("engine: %w", err)
	}
	p.logResult(log, res)

	parts := map[domain.Partition][]domain.HabitatRecord{
		domain.PartitionFormattedCorrect:  res.FormattedCorrect,
		domain.PartitionFlaggedForReview:  res.FlaggedForReview,
		domain.PartitionRejectedIncorrect: res.RejectedIncorrect,
	}
	for _, part := range domain.Partitions() {
		report.Layers = append(report.Layers, p.route(ctx, log, spec, part, parts[part]))
	}

	if persist {
		run.Excluded = len(excluded)
		run.Counts = res.Counts()
		n, err := p.persist(ctx, run, storedRecords(run.ID, spec, parts))
		report.Persisted = n
		if err != nil {
			report.PersistErr = err
			log.Warn("persist run failed", slog.String("error", err.Error()))
			p.fail(ctx, log, run, true)
		}
	}

	report.Duration = p.now().Sub(start)
	log.Info("run completed",
		slog.Int(string(domain.PartitionFormattedCorrect), len(res.FormattedCorrect)),
		slog.Int(string(domain.PartitionFlaggedForReview), len(res.FlaggedForReview)),
		slog.Int(string(domain.PartitionRejectedIncorrect), len(res.RejectedIncorrect)),
		slog.Int("excluded", len(excluded)),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

func filter(records []domain.HabitatRecord, exclusions []Exclusion) (kept, excluded []domain.HabitatRecord) {
	kept = make([]domain.HabitatRecord, 0, len(records))
	for _, rec := range records {
		if reason, ok := exclude(rec, exclusions); ok {
			rec.Reason = reason
			excluded = append(excluded, rec)
			continue
		}
		kept = append(kept, rec)
	}
	return kept, excluded
}

func exclude(rec domain.HabitatRecord, exclusions []Exclusion) (string, bool) {
	for _, e := range exclusions {
		if id, ok := e.Match(rec); ok {
			return fmt.Sprintf("excluded: %s contains %s", e.Column, id), true
		}
	}
	return "", false
}

func (p *Pipeline) route(ctx context.Context, log *slog.Logger, spec PathSpec, part domain.Partition, records []domain.HabitatRecord) LayerReport {
	lr := LayerReport{
		Partition: part,
		Container: part.Container(),
		Name:      spec.Layer(part),
		Records:   len(records),
	}
	attrs := []any{
		slog.String("partition", string(part)),
		slog.String("container", string(lr.Container)),
		slog.String("layer", lr.Name),
	}

	if len(records) == 0 {
		log.Info("partition empty", attrs...)
		return lr
	}
	if lr.Name == "" {
		lr.Err = fmt.Errorf("no layer configured for %s", part)
		log.Warn("partition not written", append(attrs, slog.String("error", lr.Err.Error()))...)
		return lr
	}
	if p.cfg.DryRun || p.sink == nil {
		log.Info("partition populated (not written)", append(attrs, slog.Int("records", len(records)))...)
		return lr
	}

	if err := p.sink.WriteLayer(ctx, lr.Container, lr.Name, records); err != nil {
		lr.Err = err
		log.Warn("write layer failed", append(attrs, slog.String("error", err.Error()))...)
		return lr
	}
	lr.Written = true
	log.Info("partition populated", append(attrs, slog.Int("records", len(records)))...)
	return lr
}

func (p *Pipeline) persist(ctx context.Context, run domain.IngestRun, rows []domain.StoredRecord) (int, error) {
	var inserted int
	write := func(ctx context.Context) error {
		n, err := batchProcess(rows, p.cfg.BatchSize, func(batch []domain.StoredRecord) (int, error) {
			return p.store.BulkInsertRecords(ctx, batch)
		})
		inserted = n
		if err != nil {
			return fmt.Errorf("insert records: %w", err)
		}

		finished := p.now()
		run.Status = domain.RunStatusFinished
		run.FinishedAt = &finished
		if err := p.store.FinishRun(ctx, run); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		return nil
	}

	if p.tx == nil {
		return inserted, write(ctx)
	}
	err := p.tx.RunInTx(ctx, write)
	if err != nil {
		inserted = 0
	}
	return inserted, err
}

// fail marks a persisted run as failed. Errors are logged only; the caller
// already has a primary failure to report.
func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, run domain.IngestRun, persist bool) {
	if !persist {
		return
	}
	finished := p.now()
	run.Status = domain.RunStatusFailed
	run.FinishedAt = &finished
	// The run row must be closed even when ctx is what failed.
	ctx = context.WithoutCancel(ctx)
	if err := p.store.FinishRun(ctx, run); err != nil {
		log.Warn("mark run failed", slog.String("error", err.Error()))
	}
}

func (p *Pipeline) logResult(log *slog.Logger, res habitat.Result) {
	log.Info("validation completed",
		slog.Int("flagged", res.Stats.Flagged),
		slog.Int("initial_correct", res.Stats.InitialCorrect),
		slog.Int("initial_incorrect", res.Stats.InitialIncorrect),
		slog.Int("recovered", res.Stats.Recovered),
		slog.Int("rejected", res.Stats.Rejected),
	)
	if invalid := res.Segments.InvalidCodes(); len(invalid) > 0 {
		log.Info("invalid segments found",
			slog.Int("distinct", len(invalid)),
			slog.Any("codes", invalid),
			slog.Int("malformed", res.Segments.Malformed),
		)
	}
}
