package habitat

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Rule is one correction pass. Apply rewrites rec in place and reports whether
// it changed or recovered the record; records a rule does not match pass
// through untouched.
type Rule interface {
	Name() string
	Apply(rec *domain.HabitatRecord) bool
}

// Rule names, in pipeline order.
const (
	RuleSeparators    = "separators"
	RuleTruncate      = "truncate"
	RuleBlankFallback = "blank-fallback"
	RuleStrayLiteral  = "stray-literal"
	RuleAlternatives  = "alternatives"
	RuleSubstitutions = "substitutions"
)

var conjunctionRe = regexp.MustCompile(`&|/|, `)

// SeparatorRule canonicalizes conjunction punctuation to the composite
// separator, turns "or " into the alternative marker and strips annotation
// punctuation and whitespace.
type SeparatorRule struct{}

func (SeparatorRule) Name() string { return RuleSeparators }

func (SeparatorRule) Apply(rec *domain.HabitatRecord) bool {
	code := conjunctionRe.ReplaceAllString(rec.PrimaryCode, domain.CompositeSeparator)
	code = strings.ReplaceAll(code, "or ", domain.AlternativeSeparator)
	code = strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '(', ')':
			return -1
		}
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
	return set(rec, code)
}

// TruncateRule keeps the leading run of a code up to the first hyphen, colon
// or letter outside the code alphabet, dropping trailing free text such as
// "A3.21-sparse kelp".
type TruncateRule struct{}

func (TruncateRule) Name() string { return RuleTruncate }

func (TruncateRule) Apply(rec *domain.HabitatRecord) bool {
	i := strings.IndexFunc(rec.PrimaryCode, outsideCodeAlphabet)
	if i < 0 {
		return false
	}
	return set(rec, rec.PrimaryCode[:i])
}

// outsideCodeAlphabet stops truncation. Codes use digits, '.', the separators
// and the letters a-f/A-F only.
func outsideCodeAlphabet(r rune) bool {
	switch {
	case r == '-' || r == ':':
		return true
	case (r >= 'g' && r <= 'z') || (r >= 'G' && r <= 'Z'):
		return true
	}
	return false
}

// BlankFallbackRule fills an empty working code from the record's
// already-computed top-level class.
type BlankFallbackRule struct{}

func (BlankFallbackRule) Name() string { return RuleBlankFallback }

func (BlankFallbackRule) Apply(rec *domain.HabitatRecord) bool {
	if rec.PrimaryCode != "" || rec.TopLevelClass == "" {
		return false
	}
	return set(rec, rec.TopLevelClass)
}

// StrayLiteralRule removes one provider-specific transcription artifact.
// It is a single literal fix; no other letters are touched.
type StrayLiteralRule struct {
	Literal string
}

func (StrayLiteralRule) Name() string { return RuleStrayLiteral }

func (r StrayLiteralRule) Apply(rec *domain.HabitatRecord) bool {
	if r.Literal == "" {
		return false
	}
	return set(rec, strings.ReplaceAll(rec.PrimaryCode, r.Literal, ""))
}

// AlternativeRule recovers "A or B" codes: when every alternative is valid on
// its own, the top-level class is re-derived and the marker is kept.
type AlternativeRule struct {
	validator *Validator
	formatter Formatter
}

// NewAlternativeRule validates alternatives against vocab.
func NewAlternativeRule(vocab *Vocabulary) AlternativeRule {
	return AlternativeRule{validator: NewValidator(vocab, MatchSegments)}
}

func (AlternativeRule) Name() string { return RuleAlternatives }

func (r AlternativeRule) Apply(rec *domain.HabitatRecord) bool {
	if !strings.Contains(rec.PrimaryCode, domain.AlternativeSeparator) {
		return false
	}
	for _, side := range strings.Split(rec.PrimaryCode, domain.AlternativeSeparator) {
		if r.validator.Check(side) != nil {
			return false
		}
	}
	rec.TopLevelClass = r.formatter.DeriveTopLevel(rec.PrimaryCode)
	return true
}

// SubstitutionRule replaces codes found verbatim in a Substitutions table.
type SubstitutionRule struct {
	table     Substitutions
	formatter Formatter
}

// NewSubstitutionRule applies table.
func NewSubstitutionRule(table Substitutions) SubstitutionRule {
	return SubstitutionRule{table: table}
}

func (SubstitutionRule) Name() string { return RuleSubstitutions }

func (r SubstitutionRule) Apply(rec *domain.HabitatRecord) bool {
	to, ok := r.table.Lookup(rec.PrimaryCode)
	if !ok {
		return false
	}
	rec.PrimaryCode = to
	rec.TopLevelClass = r.formatter.DeriveTopLevel(to)
	return true
}

func set(rec *domain.HabitatRecord, code string) bool {
	if code == rec.PrimaryCode {
		return false
	}
	rec.PrimaryCode = code
	return true
}
