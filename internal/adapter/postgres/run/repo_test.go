//go:build integration

package run_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marineevidence/combinedmap/internal/adapter/postgres"
	"github.com/marineevidence/combinedmap/internal/adapter/postgres/run"
	"github.com/marineevidence/combinedmap/internal/adapter/postgres/testhelper"
	"github.com/marineevidence/combinedmap/internal/domain"
)

func newRun(path string, started time.Time) domain.IngestRun {
	return domain.IngestRun{
		ID:        uuid.New(),
		Path:      path,
		Source:    "survey.csv",
		Status:    domain.RunStatusRunning,
		Input:     3,
		StartedAt: started.UTC().Truncate(time.Microsecond),
	}
}

func stored(runID uuid.UUID, p domain.Partition, layer string, rec domain.HabitatRecord) domain.StoredRecord {
	return domain.StoredRecord{ID: uuid.New(), RunID: runID, Partition: p, Layer: layer, Record: rec}
}

func TestRepo_RunLifecycle(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := run.New(pool)
	ctx := context.Background()

	r := newRun("evbase", time.Now())
	require.NoError(t, repo.CreateRun(ctx, r))

	err := repo.CreateRun(ctx, r)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists), "duplicate id: %v", err)

	finished := time.Now().UTC().Truncate(time.Microsecond)
	r.Status = domain.RunStatusFinished
	r.FinishedAt = &finished
	r.Excluded = 1
	r.Counts = map[domain.Partition]int{
		domain.PartitionFormattedCorrect:  2,
		domain.PartitionRejectedIncorrect: 1,
	}
	require.NoError(t, repo.FinishRun(ctx, r))

	got, err := repo.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFinished, got.Status)
	assert.Equal(t, 1, got.Excluded)
	assert.Equal(t, 2, got.Counts[domain.PartitionFormattedCorrect])
	assert.Equal(t, 0, got.Counts[domain.PartitionFlaggedForReview])
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))
}

func TestRepo_GetRun_NotFound(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := run.New(pool)

	_, err := repo.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.FinishRun(context.Background(), domain.IngestRun{ID: uuid.New(), Status: domain.RunStatusFailed})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_Records(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := run.New(pool)
	ctx := context.Background()

	r := newRun("new", time.Now())
	require.NoError(t, repo.CreateRun(ctx, r))

	records := []domain.StoredRecord{
		stored(r.ID, domain.PartitionFormattedCorrect, "NewSurveyMaps", domain.HabitatRecord{
			Polygon: 2, PrimaryCode: "A3+A1", TopLevelClass: "A3+A1",
			Provenance:  map[string]string{"GUI": "GB0001"},
			Attributes:  map[string]string{"MESH_Confi": "50"},
			Corrections: []string{"substitutions"},
		}),
		stored(r.ID, domain.PartitionFormattedCorrect, "NewSurveyMaps", domain.HabitatRecord{Polygon: 1, PrimaryCode: "A5.1", TopLevelClass: "A5.1"}),
		stored(r.ID, domain.PartitionRejectedIncorrect, "NewSurveyMaps_IncorrectCodes", domain.HabitatRecord{
			Polygon: 3, PrimaryCode: "A9.9", Reason: "not in reference vocabulary: A9.9",
		}),
	}

	n, err := run.New(pool).BulkInsertRecords(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := repo.ListRecords(ctx, r.ID, domain.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].Record.Polygon, "ordered by partition then polygon")
	assert.Equal(t, "GB0001", all[1].Record.Source("GUI"))
	assert.Equal(t, []string{"substitutions"}, all[1].Record.Corrections)
	assert.Nil(t, all[0].Record.Corrections)

	rejected, err := repo.ListRecords(ctx, r.ID, domain.RecordFilter{Partition: domain.PartitionRejectedIncorrect})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "not in reference vocabulary: A9.9", rejected[0].Record.Reason)

	limited, err := repo.ListRecords(ctx, r.ID, domain.RecordFilter{Layer: "NewSurveyMaps", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepo_BulkInsertInTransaction(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := run.New(pool)
	tm := postgres.NewTxManager(pool)
	ctx := context.Background()

	r := newRun("modelled", time.Now())
	require.NoError(t, repo.CreateRun(ctx, r))

	sentinel := errors.New("abort")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := repo.BulkInsertRecords(ctx, []domain.StoredRecord{
			stored(r.ID, domain.PartitionFormattedCorrect, "EUSeaMap", domain.HabitatRecord{PrimaryCode: "A5.1"}),
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	recs, err := repo.ListRecords(ctx, r.ID, domain.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRepo_ListRunsAndCleanup(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := run.New(pool)
	ctx := context.Background()

	old := newRun("previous", time.Now().AddDate(0, 0, -400))
	fresh := newRun("previous", time.Now())
	require.NoError(t, repo.CreateRun(ctx, old))
	require.NoError(t, repo.CreateRun(ctx, fresh))
	_, err := repo.BulkInsertRecords(ctx, []domain.StoredRecord{
		stored(old.ID, domain.PartitionFormattedCorrect, "OldOffshoreSurveys", domain.HabitatRecord{PrimaryCode: "A5.1"}),
	})
	require.NoError(t, err)

	runs, err := repo.ListRuns(ctx, "previous", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(runs), 2)
	assert.False(t, runs[0].StartedAt.Before(runs[1].StartedAt), "newest first")

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	_, err = repo.GetRun(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	recs, err := repo.ListRecords(ctx, old.ID, domain.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs, "records cascade with their run")

	_, err = repo.GetRun(ctx, fresh.ID)
	assert.NoError(t, err)
}
