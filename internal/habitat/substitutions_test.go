package habitat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marineevidence/combinedmap/internal/domain"
)

func TestDefaultSubstitutions_Valid(t *testing.T) {
	if err := DefaultSubstitutions().Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if to, ok := DefaultSubstitutions().Lookup("A3.A1"); !ok || to != "A3+A1" {
		t.Errorf("Lookup(A3.A1) = %q, %v", to, ok)
	}
	if _, ok := DefaultSubstitutions().Lookup("A3.A1 "); ok {
		t.Error("Lookup must only match exactly")
	}
}

func TestParseSubstitutions(t *testing.T) {
	s, err := ParseSubstitutions(strings.NewReader(`
substitutions:
  "A3.A1": "A3+A1"
  "5.4": "A5.4"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 2 || s["5.4"] != "A5.4" {
		t.Errorf("unexpected table: %v", s)
	}
}

func TestParseSubstitutions_Empty(t *testing.T) {
	s, err := ParseSubstitutions(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected empty table, got %v", s)
	}
}

func TestSubstitutions_ValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		table Substitutions
	}{
		{"empty key", Substitutions{"": "A3"}},
		{"empty value", Substitutions{"A3.A1": ""}},
		{"identity", Substitutions{"A3": "A3"}},
		{"chained", Substitutions{"5.4": "A5.4", "A5.4": "A5.41"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.table.Validate(); !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("Validate() = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestParseSubstitutions_BadYAML(t *testing.T) {
	_, err := ParseSubstitutions(strings.NewReader("substitutions: [not, a, map]"))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestLoadSubstitutions(t *testing.T) {
	s, err := LoadSubstitutions("")
	if err != nil || len(s) != len(DefaultSubstitutions()) {
		t.Errorf("LoadSubstitutions(\"\") = %v, %v; want defaults", s, err)
	}

	path := filepath.Join(t.TempDir(), "subs.yaml")
	if err := os.WriteFile(path, []byte("substitutions:\n  \"1.1221\": \"A1.1221\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = LoadSubstitutions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s["1.1221"] != "A1.1221" {
		t.Errorf("unexpected table: %v", s)
	}

	if _, err := LoadSubstitutions(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing file error = %v, want ErrConfiguration", err)
	}
}
