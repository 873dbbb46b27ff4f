package habitat

import (
	"fmt"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// MatchMode selects how a code is tested against the vocabulary.
type MatchMode int

const (
	// MatchWhole tests the code as one string.
	MatchWhole MatchMode = iota
	// MatchSegments tests every composite segment individually.
	MatchSegments
	// MatchAlternatives tests every composite segment and, inside it, every
	// alternative. Used once correction has introduced alternative markers.
	MatchAlternatives
)

func (m MatchMode) String() string {
	switch m {
	case MatchWhole:
		return "whole"
	case MatchSegments:
		return "segments"
	case MatchAlternatives:
		return "alternatives"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// ParseMatchMode parses the textual form used in configuration.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whole":
		return MatchWhole, nil
	case "segments", "":
		return MatchSegments, nil
	case "alternatives":
		return MatchAlternatives, nil
	}
	return 0, domain.NewConfigError("match", fmt.Sprintf("unknown match mode %q", s))
}

// UnknownCodeError lists the parts of a code missing from the vocabulary.
type UnknownCodeError struct {
	Code    string
	Unknown []string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("not in reference vocabulary: %s", strings.Join(e.Unknown, ", "))
}

// Validator classifies codes and records against a Vocabulary.
type Validator struct {
	vocab    *Vocabulary
	mode     MatchMode
	splitter Splitter
}

// NewValidator creates a Validator.
func NewValidator(vocab *Vocabulary, mode MatchMode) *Validator {
	return &Validator{vocab: vocab, mode: mode, splitter: NewSplitter()}
}

// Mode returns the match mode.
func (v *Validator) Mode() MatchMode { return v.mode }

// Check returns nil when code is valid. Otherwise it returns a
// *domain.MalformedError for blank or unsplittable codes, or an
// *UnknownCodeError naming the parts missing from the vocabulary.
func (v *Validator) Check(code string) error {
	if v.mode == MatchWhole {
		if strings.TrimSpace(code) == "" {
			return &domain.MalformedError{Code: code, Reason: "empty habitat code"}
		}
		if !v.vocab.Contains(code) {
			return &UnknownCodeError{Code: code, Unknown: []string{code}}
		}
		return nil
	}

	segments, err := v.splitter.Split(code)
	if err != nil {
		return err
	}

	var unknown []string
	for _, seg := range segments {
		parts := []string{seg}
		if v.mode == MatchAlternatives {
			parts = strings.Split(seg, domain.AlternativeSeparator)
		}
		for _, p := range parts {
			if p == "" {
				return &domain.MalformedError{Code: code, Reason: "empty alternative"}
			}
			if !v.vocab.Contains(p) {
				unknown = append(unknown, p)
			}
		}
	}
	if len(unknown) > 0 {
		return &UnknownCodeError{Code: code, Unknown: unknown}
	}
	return nil
}

// Valid reports whether the record's primary code passes Check.
func (v *Validator) Valid(rec domain.HabitatRecord) bool {
	return v.Check(rec.PrimaryCode) == nil
}

// Partition splits records into those whose primary code is valid and those
// that are not. Every record lands in exactly one subset, in input order.
// Records are not modified.
func (v *Validator) Partition(records []domain.HabitatRecord) (correct, incorrect []domain.HabitatRecord) {
	for _, rec := range records {
		if v.Valid(rec) {
			correct = append(correct, rec)
		} else {
			incorrect = append(incorrect, rec)
		}
	}
	return correct, incorrect
}
