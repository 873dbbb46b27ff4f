package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a persisted ingestion run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

// IngestRun is the audit row written for every non-dry run.
type IngestRun struct {
	ID         uuid.UUID
	Path       string
	Source     string
	Status     RunStatus
	Input      int
	Excluded   int
	Counts     map[Partition]int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// StoredRecord is a routed record as persisted for a run.
type StoredRecord struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	Partition Partition
	Layer     string
	Record    HabitatRecord
}

// RecordFilter narrows ListRecords. Zero values are ignored.
type RecordFilter struct {
	Partition Partition
	Layer     string
	Limit     uint64
}
