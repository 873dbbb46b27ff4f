package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Sink receives populated output layers. Implemented by survey.Writer.
type Sink interface {
	WriteLayer(ctx context.Context, container domain.Container, layer string, records []domain.HabitatRecord) error
}

// RunStore persists runs and their routed records. Implemented by run.Repo.
// All methods use only domain types.
type RunStore interface {
	CreateRun(ctx context.Context, run domain.IngestRun) error
	BulkInsertRecords(ctx context.Context, records []domain.StoredRecord) (int, error)
	FinishRun(ctx context.Context, run domain.IngestRun) error
}

// TxManager runs fn inside one database transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// storedRecords flattens routed partitions into rows for runID.
func storedRecords(runID uuid.UUID, spec PathSpec, parts map[domain.Partition][]domain.HabitatRecord) []domain.StoredRecord {
	var out []domain.StoredRecord
	for _, p := range domain.Partitions() {
		for _, rec := range parts[p] {
			out = append(out, domain.StoredRecord{
				ID:        uuid.New(),
				RunID:     runID,
				Partition: p,
				Layer:     spec.Layer(p),
				Record:    rec,
			})
		}
	}
	return out
}

// batchProcess splits items into batches and processes each via fn.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
