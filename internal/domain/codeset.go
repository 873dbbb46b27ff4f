package domain

import (
	"slices"
	"strings"
)

// CodeSet is the deduplicated segment list of a composite code. Segments keep
// their first-occurrence order; equality ignores order and repetition.
type CodeSet struct {
	segments []string
}

// NewCodeSet builds a CodeSet from already-split segments. Empty segments are dropped.
func NewCodeSet(segments []string) CodeSet {
	seen := make(map[string]struct{}, len(segments))
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return CodeSet{segments: out}
}

// ParseCodeSet splits code on the composite separator and builds a CodeSet.
func ParseCodeSet(code string) CodeSet {
	if code == "" {
		return CodeSet{}
	}
	return NewCodeSet(strings.Split(code, CompositeSeparator))
}

// Segments returns a copy of the ordered segments.
func (c CodeSet) Segments() []string {
	return slices.Clone(c.segments)
}

// Len returns the number of distinct segments.
func (c CodeSet) Len() int { return len(c.segments) }

// Contains reports whether segment is part of the set.
func (c CodeSet) Contains(segment string) bool {
	return slices.Contains(c.segments, segment)
}

// Equal reports whether both sets hold the same segments regardless of order.
func (c CodeSet) Equal(other CodeSet) bool {
	if len(c.segments) != len(other.segments) {
		return false
	}
	for _, s := range c.segments {
		if !other.Contains(s) {
			return false
		}
	}
	return true
}

// String joins the segments with the composite separator.
func (c CodeSet) String() string {
	return strings.Join(c.segments, CompositeSeparator)
}
