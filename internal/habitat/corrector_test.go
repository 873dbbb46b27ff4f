package habitat

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marineevidence/combinedmap/internal/domain"
)

func testCorrector(t *testing.T) *Corrector {
	t.Helper()
	return NewCorrector(DefaultRules(testVocabulary(t), DefaultSubstitutions(), "a")...)
}

func TestCorrector_RuleOrder(t *testing.T) {
	want := []string{RuleSeparators, RuleTruncate, RuleBlankFallback, RuleStrayLiteral, RuleAlternatives, RuleSubstitutions}
	if got := testCorrector(t).RuleNames(); !slices.Equal(got, want) {
		t.Errorf("RuleNames() = %v, want %v", got, want)
	}
}

func TestCorrector_CorrectOne(t *testing.T) {
	c := testCorrector(t)

	tests := []struct {
		name            string
		in              domain.HabitatRecord
		wantCode        string
		wantCorrections []string
	}{
		{
			name:            "or becomes recovered alternative",
			in:              rec("A5.2 or A5.3", ""),
			wantCode:        "A5.2/A5.3",
			wantCorrections: []string{RuleSeparators, RuleAlternatives},
		},
		{
			name:            "blank field falls back",
			in:              rec("", "A3.2"),
			wantCode:        "A3.2",
			wantCorrections: []string{RuleBlankFallback},
		},
		{
			name:            "free text suffix",
			in:              rec("A3.21 - sparse kelp", ""),
			wantCode:        "A3.21",
			wantCorrections: []string{RuleSeparators, RuleTruncate},
		},
		{
			name:            "substitution after normalization",
			in:              rec(" A3.A1 ", ""),
			wantCode:        "A3+A1",
			wantCorrections: []string{RuleSeparators, RuleSubstitutions},
		},
		{
			name:            "stray artifact",
			in:              rec("A5.2a", ""),
			wantCode:        "A5.2",
			wantCorrections: []string{RuleStrayLiteral},
		},
		{
			// Only lower-case "or " is an alternative marker; "OR" is cut at 'O'.
			name:            "upper-case OR drops the second alternative",
			in:              rec("A5.2 OR A5.3", ""),
			wantCode:        "A5.2",
			wantCorrections: []string{RuleSeparators, RuleTruncate},
		},
		{
			// Letters a-f belong to the code alphabet, so truncation keeps "de".
			name:            "free text starting with code letters",
			in:              rec("A3.21 dense kelp", ""),
			wantCode:        "A3.21de",
			wantCorrections: []string{RuleSeparators, RuleTruncate},
		},
		{
			name:     "unrecoverable passes through",
			in:       rec("A9.9", "A9.9"),
			wantCode: "A9.9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.CorrectOne(tt.in)
			if got.PrimaryCode != tt.wantCode {
				t.Errorf("code = %q, want %q", got.PrimaryCode, tt.wantCode)
			}
			if !slices.Equal(got.Corrections, tt.wantCorrections) {
				t.Errorf("corrections = %v, want %v", got.Corrections, tt.wantCorrections)
			}
		})
	}
}

func TestCorrector_DoesNotMutateInput(t *testing.T) {
	in := []domain.HabitatRecord{rec("A5.2 or A5.3", ""), rec("", "A3.2")}
	snapshot := []domain.HabitatRecord{in[0].Clone(), in[1].Clone()}

	_ = testCorrector(t).Correct(in)

	if diff := cmp.Diff(snapshot, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestCorrector_ParallelMatchesSequential(t *testing.T) {
	base := []string{"A5.2 or A5.3", "", "A3.21-kelp", "A3.A1", "A5.2a", "junk", "A3.21&A5.1", "5.4"}
	var in []domain.HabitatRecord
	for i := range 200 {
		r := rec(base[i%len(base)], "A3.2")
		r.Polygon = i + 1
		in = append(in, r)
	}

	seq := testCorrector(t)
	par := seq.WithWorkers(4)

	want := seq.Correct(in)
	got := par.Correct(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parallel result differs (-seq +par):\n%s", diff)
	}
	for i, r := range got {
		if r.Polygon != i+1 {
			t.Fatalf("order not preserved at %d: polygon %d", i, r.Polygon)
		}
	}
}

func TestCorrector_WithWorkersClamps(t *testing.T) {
	c := testCorrector(t).WithWorkers(0)
	if c.workers != 1 {
		t.Errorf("workers = %d, want 1", c.workers)
	}
	got := c.Correct([]domain.HabitatRecord{rec("A5.2a", "")})
	if len(got) != 1 || got[0].PrimaryCode != "A5.2" {
		t.Errorf("unexpected result: %v", fmt.Sprint(codes(got)))
	}
}
