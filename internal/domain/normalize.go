package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeField prepares a raw attribute value read from a provider export:
//   - applies Unicode NFKC so non-breaking spaces and full-width punctuation
//     collapse to their ASCII forms
//   - removes carriage returns and line feeds
//   - maps whitespace-only values to ""
//
// Interior spacing is otherwise preserved; correction passes decide what it means.
func NormalizeField(value string) string {
	if value == "" {
		return ""
	}
	value = norm.NFKC.String(value)
	value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return value
}
