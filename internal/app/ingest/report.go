package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/marineevidence/combinedmap/internal/domain"
	"github.com/marineevidence/combinedmap/internal/habitat"
)

// LayerReport describes the output of one partition.
type LayerReport struct {
	Partition domain.Partition
	Container domain.Container
	Name      string
	Records   int
	Written   bool
	Err       error
}

// Report is the outcome of one Pipeline.Run.
type Report struct {
	RunID  uuid.UUID
	Path   Path
	Source string
	DryRun bool

	Input int
	// Excluded holds records dropped by provenance exclusions, with Reason set.
	Excluded []domain.HabitatRecord
	// Public counts kept records whose NE_UID is publicly accessible.
	Public int

	Result habitat.Result
	Layers []LayerReport

	Persisted  int
	PersistErr error
	Duration   time.Duration
}

// Counts returns the size of every partition.
func (r *Report) Counts() map[domain.Partition]int {
	return r.Result.Counts()
}

// NeedsReview reports whether any record must be queried with its provider.
func (r *Report) NeedsReview() bool {
	return len(r.Result.FlaggedForReview) > 0 || len(r.Result.RejectedIncorrect) > 0
}

// HasErrors reports whether writing or persisting failed.
func (r *Report) HasErrors() bool {
	if r.PersistErr != nil {
		return true
	}
	for _, l := range r.Layers {
		if l.Err != nil {
			return true
		}
	}
	return false
}
