package ingest

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/marineevidence/combinedmap/internal/domain"
)

type sinkMock struct {
	mu             sync.Mutex
	WriteLayerFunc func(ctx context.Context, container domain.Container, layer string, records []domain.HabitatRecord) error
	written        map[string][]domain.HabitatRecord
	order          []string
}

func newSinkMock() *sinkMock {
	return &sinkMock{written: make(map[string][]domain.HabitatRecord)}
}

func (m *sinkMock) WriteLayer(ctx context.Context, container domain.Container, layer string, records []domain.HabitatRecord) error {
	if m.WriteLayerFunc != nil {
		if err := m.WriteLayerFunc(ctx, container, layer, records); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(container) + "/" + layer
	m.written[key] = records
	m.order = append(m.order, key)
	return nil
}

type storeMock struct {
	mu                    sync.Mutex
	CreateRunFunc         func(ctx context.Context, run domain.IngestRun) error
	BulkInsertRecordsFunc func(ctx context.Context, records []domain.StoredRecord) (int, error)
	FinishRunFunc         func(ctx context.Context, run domain.IngestRun) error

	created  []domain.IngestRun
	finished []domain.IngestRun
	rows     []domain.StoredRecord
	batches  int
}

func (m *storeMock) CreateRun(ctx context.Context, run domain.IngestRun) error {
	m.mu.Lock()
	m.created = append(m.created, run)
	m.mu.Unlock()
	if m.CreateRunFunc != nil {
		return m.CreateRunFunc(ctx, run)
	}
	return nil
}

func (m *storeMock) BulkInsertRecords(ctx context.Context, records []domain.StoredRecord) (int, error) {
	if m.BulkInsertRecordsFunc != nil {
		if n, err := m.BulkInsertRecordsFunc(ctx, records); err != nil {
			return n, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	m.rows = append(m.rows, records...)
	return len(records), nil
}

func (m *storeMock) FinishRun(ctx context.Context, run domain.IngestRun) error {
	m.mu.Lock()
	m.finished = append(m.finished, run)
	m.mu.Unlock()
	if m.FinishRunFunc != nil {
		return m.FinishRunFunc(ctx, run)
	}
	return nil
}

type txMock struct {
	calls int
}

func (m *txMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
