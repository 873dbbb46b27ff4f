package habitat

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Splitter decomposes composite codes into ordered segments without mutating
// the record. It backs the per-segment quality view.
type Splitter struct {
	sep string
}

// NewSplitter returns a Splitter on the composite separator.
func NewSplitter() Splitter {
	return Splitter{sep: domain.CompositeSeparator}
}

// Split returns the non-empty segments of code in order. A blank code yields
// no segments and a *domain.MalformedError; empty segments produced by leading,
// trailing or doubled separators are skipped and reported the same way.
func (s Splitter) Split(code string) ([]string, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &domain.MalformedError{Code: code, Reason: "empty habitat code"}
	}
	sep := s.sep
	if sep == "" {
		sep = domain.CompositeSeparator
	}

	parts := strings.Split(code, sep)
	segments := make([]string, 0, len(parts))
	var empty []int
	for i, p := range parts {
		if p == "" {
			empty = append(empty, i+1)
			continue
		}
		segments = append(segments, p)
	}
	if len(empty) > 0 {
		return segments, &domain.MalformedError{
			Code:   code,
			Reason: fmt.Sprintf("empty segment at position %v", empty),
		}
	}
	return segments, nil
}

// SplitRecord splits the record's primary code.
func (s Splitter) SplitRecord(rec domain.HabitatRecord) ([]string, error) {
	return s.Split(rec.PrimaryCode)
}

// SegmentReport is the diagnostic view of a batch: how many segments were
// seen and which ones are unknown to the vocabulary.
type SegmentReport struct {
	Records   int
	Segments  int
	Malformed int
	// Invalid counts occurrences of each segment missing from the vocabulary.
	Invalid map[string]int
}

// InvalidCodes returns the distinct invalid segments sorted alphabetically.
func (r SegmentReport) InvalidCodes() []string {
	return slices.Sorted(maps.Keys(r.Invalid))
}

// Inspect builds a SegmentReport for records against vocab.
func (s Splitter) Inspect(records []domain.HabitatRecord, vocab *Vocabulary) SegmentReport {
	report := SegmentReport{Records: len(records), Invalid: make(map[string]int)}
	for _, rec := range records {
		segments, err := s.SplitRecord(rec)
		if err != nil {
			report.Malformed++
		}
		report.Segments += len(segments)
		for _, seg := range segments {
			if !vocab.Contains(seg) {
				report.Invalid[seg]++
			}
		}
	}
	return report
}
