package habitat

import (
	"golang.org/x/sync/errgroup"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Corrector applies an ordered list of rules to every record it is given.
// Later rules assume earlier normalizations, so order is fixed at construction.
type Corrector struct {
	rules   []Rule
	workers int
}

// NewCorrector creates a Corrector from rules applied strictly in order.
func NewCorrector(rules ...Rule) *Corrector {
	return &Corrector{rules: rules, workers: 1}
}

// DefaultRules returns the correction pipeline:
//
//  1. separators: conjunctions to '+', "or " to '/', strip punctuation and spaces
//  2. truncate: drop trailing free text
//  3. blank-fallback: empty code falls back to the top-level class
//  4. stray-literal: remove the provider's transcription artifact
//  5. alternatives: recover "A/B" codes whose alternatives are valid
//  6. substitutions: exact-match table of known-bad codes
func DefaultRules(vocab *Vocabulary, table Substitutions, strayLiteral string) []Rule {
	return []Rule{
		SeparatorRule{},
		TruncateRule{},
		BlankFallbackRule{},
		StrayLiteralRule{Literal: strayLiteral},
		NewAlternativeRule(vocab),
		NewSubstitutionRule(table),
	}
}

// WithWorkers returns a copy that corrects records on n goroutines.
// Records are independent and the rules hold only read-only reference data.
func (c *Corrector) WithWorkers(n int) *Corrector {
	if n < 1 {
		n = 1
	}
	return &Corrector{rules: c.rules, workers: n}
}

// RuleNames returns rule names in application order.
func (c *Corrector) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// CorrectOne runs every rule over a copy of rec. The names of rules that
// changed the record are appended to Corrections.
func (c *Corrector) CorrectOne(rec domain.HabitatRecord) domain.HabitatRecord {
	out := rec.Clone()
	for _, r := range c.rules {
		if r.Apply(&out) {
			out.Corrections = append(out.Corrections, r.Name())
		}
	}
	return out
}

// Correct returns corrected copies of records in input order.
func (c *Corrector) Correct(records []domain.HabitatRecord) []domain.HabitatRecord {
	out := make([]domain.HabitatRecord, len(records))
	if c.workers <= 1 || len(records) < 2*c.workers {
		for i, rec := range records {
			out[i] = c.CorrectOne(rec)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	chunk := (len(records) + c.workers - 1) / c.workers
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = c.CorrectOne(records[i])
			}
			return nil
		})
	}
	// Workers never return an error.
	g.Wait()
	return out
}
