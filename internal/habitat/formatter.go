package habitat

import (
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Formatter reassembles deduplicated mosaic strings and derives top-level classes.
type Formatter struct{}

// DeriveTopLevel truncates every segment of code to its top-level class,
// keeping the composite and alternative structure:
//
//	A3.21+A5.135  → A3.2+A5.1
//	A5.21/A5.35   → A5.2/A5.3
func (Formatter) DeriveTopLevel(code string) string {
	if code == "" {
		return ""
	}
	segments := strings.Split(code, domain.CompositeSeparator)
	for i, seg := range segments {
		alts := strings.Split(seg, domain.AlternativeSeparator)
		for j, a := range alts {
			alts[j] = truncate(a, domain.TopLevelLength)
		}
		segments[i] = strings.Join(alts, domain.AlternativeSeparator)
	}
	return strings.Join(segments, domain.CompositeSeparator)
}

// Canonicalize replaces PrimaryCode and TopLevelClass with their deduplicated,
// first-occurrence-ordered forms. Each field is handled independently, so two
// full codes sharing a class prefix collapse to one top-level segment.
// Canonicalize is idempotent.
func (Formatter) Canonicalize(rec domain.HabitatRecord) domain.HabitatRecord {
	rec.PrimaryCode = domain.ParseCodeSet(rec.PrimaryCode).String()
	rec.TopLevelClass = domain.ParseCodeSet(rec.TopLevelClass).String()
	return rec
}

// Format derives TopLevelClass from PrimaryCode and canonicalizes both.
func (f Formatter) Format(rec domain.HabitatRecord) domain.HabitatRecord {
	rec.TopLevelClass = f.DeriveTopLevel(rec.PrimaryCode)
	return f.Canonicalize(rec)
}

// Consistent reports whether rec's TopLevelClass is exactly what Format would
// derive from its PrimaryCode.
func (f Formatter) Consistent(rec domain.HabitatRecord) bool {
	want := domain.ParseCodeSet(f.DeriveTopLevel(rec.PrimaryCode)).String()
	return rec.TopLevelClass == want
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
