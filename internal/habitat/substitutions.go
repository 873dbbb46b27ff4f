package habitat

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Substitutions maps known-bad exact codes to known-good exact codes.
// Entries apply only on exact match of the whole working code.
type Substitutions map[string]string

// DefaultSubstitutions returns the table of defects observed in evidence-base
// exports: '.' used where '+' was intended, and codes missing their leading 'A'.
func DefaultSubstitutions() Substitutions {
	return Substitutions{
		"A3.A1":  "A3+A1",
		"A3.A2":  "A3+A2",
		"A3.A4":  "A3+A4",
		"5.4":    "A5.4",
		"1.1221": "A1.1221",
	}
}

// substitutionFile is the YAML layout of a substitution table.
//
//	substitutions:
//	  "A3.A1": "A3+A1"
type substitutionFile struct {
	Substitutions map[string]string `yaml:"substitutions"`
}

// LoadSubstitutions reads a table from a YAML file. An empty path returns the
// built-in defaults.
func LoadSubstitutions(path string) (Substitutions, error) {
	if path == "" {
		return DefaultSubstitutions(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open substitutions %s: %w", path, domain.NewConfigError("substitutions", err.Error()))
	}
	defer f.Close()

	s, err := ParseSubstitutions(f)
	if err != nil {
		return nil, fmt.Errorf("read substitutions %s: %w", path, err)
	}
	return s, nil
}

// ParseSubstitutions decodes and validates a YAML table.
func ParseSubstitutions(r io.Reader) (Substitutions, error) {
	var file substitutionFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, domain.NewConfigError("substitutions", fmt.Sprintf("decode yaml: %v", err))
	}
	s := Substitutions(file.Substitutions)
	if s == nil {
		s = Substitutions{}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects tables that are not a total, single-step mapping:
// empty keys or values, identity entries, and values that are themselves keys.
func (s Substitutions) Validate() error {
	for _, from := range slices.Sorted(maps.Keys(s)) {
		to := s[from]
		switch {
		case from == "":
			return domain.NewConfigError("substitutions", "empty source code")
		case to == "":
			return domain.NewConfigError("substitutions", fmt.Sprintf("%q maps to an empty code", from))
		case from == to:
			return domain.NewConfigError("substitutions", fmt.Sprintf("%q maps to itself", from))
		}
		if _, chained := s[to]; chained {
			return domain.NewConfigError("substitutions", fmt.Sprintf("%q maps to %q which is itself substituted", from, to))
		}
	}
	return nil
}

// Lookup returns the replacement for code on exact match.
func (s Substitutions) Lookup(code string) (string, bool) {
	to, ok := s[code]
	return to, ok
}
