package habitat

import (
	"fmt"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// DefaultReviewMarkers flag codes a surveyor wrote as "X with Y": a mosaic the
// determiner could not classify, left for manual review.
var DefaultReviewMarkers = []string{"with"}

// Config holds the reference data an Engine is built from. It is read-only
// for the lifetime of the Engine.
type Config struct {
	Vocabulary    *Vocabulary
	Substitutions Substitutions
	StrayLiteral  string
	ReviewMarkers []string
	Workers       int
}

// RunOptions selects per-path behaviour.
type RunOptions struct {
	// Match is the initial gate. Re-validation after correction always uses
	// MatchAlternatives.
	Match MatchMode
	// Correct enables the heuristic corrector for the incorrect subset.
	Correct bool
}

// Stats counts records at each stage of a run.
type Stats struct {
	Input            int
	Flagged          int
	InitialCorrect   int
	InitialIncorrect int
	Recovered        int
	Rejected         int
}

// Result holds the three output partitions of a run.
type Result struct {
	FormattedCorrect  []domain.HabitatRecord
	FlaggedForReview  []domain.HabitatRecord
	RejectedIncorrect []domain.HabitatRecord
	Stats             Stats
	Segments          SegmentReport
}

// Partition returns the records routed to p.
func (r Result) Partition(p domain.Partition) []domain.HabitatRecord {
	switch p {
	case domain.PartitionFormattedCorrect:
		return r.FormattedCorrect
	case domain.PartitionFlaggedForReview:
		return r.FlaggedForReview
	case domain.PartitionRejectedIncorrect:
		return r.RejectedIncorrect
	}
	return nil
}

// Counts returns the size of every partition, empty ones included.
func (r Result) Counts() map[domain.Partition]int {
	return map[domain.Partition]int{
		domain.PartitionFormattedCorrect:  len(r.FormattedCorrect),
		domain.PartitionFlaggedForReview:  len(r.FlaggedForReview),
		domain.PartitionRejectedIncorrect: len(r.RejectedIncorrect),
	}
}

// Total returns the number of routed records.
func (r Result) Total() int {
	return len(r.FormattedCorrect) + len(r.FlaggedForReview) + len(r.RejectedIncorrect)
}

// Engine sequences splitter, validator, corrector and formatter over a batch.
// It is path-agnostic and safe for sequential reuse across batches.
type Engine struct {
	vocab     *Vocabulary
	markers   []string
	splitter  Splitter
	formatter Formatter
	corrector *Corrector
	recheck   *Validator
}

// NewEngine validates cfg and builds an Engine. A missing or empty vocabulary
// and a malformed substitution table are configuration errors.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Vocabulary.Len() == 0 {
		return nil, domain.NewConfigError("vocabulary", "reference vocabulary is empty")
	}
	table := cfg.Substitutions
	if table == nil {
		table = DefaultSubstitutions()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	markers := cfg.ReviewMarkers
	if markers == nil {
		markers = DefaultReviewMarkers
	}
	for _, m := range markers {
		if m == "" {
			return nil, domain.NewConfigError("review_markers", "empty marker")
		}
	}

	corrector := NewCorrector(DefaultRules(cfg.Vocabulary, table, cfg.StrayLiteral)...).WithWorkers(cfg.Workers)

	return &Engine{
		vocab:     cfg.Vocabulary,
		markers:   markers,
		splitter:  NewSplitter(),
		corrector: corrector,
		recheck:   NewValidator(cfg.Vocabulary, MatchAlternatives),
	}, nil
}

// Vocabulary returns the reference vocabulary.
func (e *Engine) Vocabulary() *Vocabulary { return e.vocab }

// Corrector returns the correction pipeline.
func (e *Engine) Corrector() *Corrector { return e.corrector }

// Run classifies one batch. Per-record defects never fail the run; the error
// return is reserved for invariant violations, which indicate a bug.
func (e *Engine) Run(records []domain.HabitatRecord, opts RunOptions) (Result, error) {
	res := Result{Stats: Stats{Input: len(records)}}

	pending := make([]domain.HabitatRecord, 0, len(records))
	for _, rec := range records {
		if m, ok := e.reviewMarker(rec.PrimaryCode); ok {
			flagged := rec.Clone()
			flagged.Reason = fmt.Sprintf("contains review marker %q", m)
			res.FlaggedForReview = append(res.FlaggedForReview, flagged)
			continue
		}
		pending = append(pending, rec)
	}
	res.Stats.Flagged = len(res.FlaggedForReview)
	res.Segments = e.splitter.Inspect(pending, e.vocab)

	gate := NewValidator(e.vocab, opts.Match)
	correct, incorrect := gate.Partition(pending)
	res.Stats.InitialCorrect = len(correct)
	res.Stats.InitialIncorrect = len(incorrect)

	for _, rec := range correct {
		res.FormattedCorrect = append(res.FormattedCorrect, e.formatter.Format(rec.Clone()))
	}

	checker := gate
	if opts.Correct {
		incorrect = e.corrector.Correct(incorrect)
		checker = e.recheck
	}
	for _, rec := range incorrect {
		err := checker.Check(rec.PrimaryCode)
		if opts.Correct && err == nil {
			res.FormattedCorrect = append(res.FormattedCorrect, e.formatter.Format(rec))
			res.Stats.Recovered++
			continue
		}
		rejected := rec.Clone()
		rejected.Reason = reason(err)
		res.RejectedIncorrect = append(res.RejectedIncorrect, rejected)
	}
	res.Stats.Rejected = len(res.RejectedIncorrect)

	if err := e.CheckInvariants(res); err != nil {
		return res, err
	}
	return res, nil
}

// CheckInvariants verifies that every input record was routed exactly once and
// that every formatted record is valid, canonical and carries the top-level
// class derived from its primary code.
func (e *Engine) CheckInvariants(res Result) error {
	if res.Total() != res.Stats.Input {
		return fmt.Errorf("%w: routed %d of %d records", domain.ErrInvariant, res.Total(), res.Stats.Input)
	}
	if res.Stats.Rejected > res.Stats.InitialIncorrect {
		return fmt.Errorf("%w: %d rejected after correction, %d incorrect before", domain.ErrInvariant,
			res.Stats.Rejected, res.Stats.InitialIncorrect)
	}
	for i, rec := range res.FormattedCorrect {
		if err := e.recheck.Check(rec.PrimaryCode); err != nil {
			return fmt.Errorf("%w: formatted record %d (polygon %d): %v", domain.ErrInvariant, i, rec.Polygon, err)
		}
		if c := e.formatter.Canonicalize(rec); c.PrimaryCode != rec.PrimaryCode || c.TopLevelClass != rec.TopLevelClass {
			return fmt.Errorf("%w: formatted record %d (polygon %d) is not canonical", domain.ErrInvariant, i, rec.Polygon)
		}
		if !e.formatter.Consistent(rec) {
			return fmt.Errorf("%w: formatted record %d (polygon %d): top-level class %q does not match code %q",
				domain.ErrInvariant, i, rec.Polygon, rec.TopLevelClass, rec.PrimaryCode)
		}
	}
	return nil
}

func (e *Engine) reviewMarker(code string) (string, bool) {
	for _, m := range e.markers {
		if strings.Contains(code, m) {
			return m, true
		}
	}
	return "", false
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
