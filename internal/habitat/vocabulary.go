package habitat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Vocabulary is the immutable set of valid leaf habitat codes.
// Membership is case-sensitive and exact.
type Vocabulary struct {
	codes map[string]struct{}
}

// NewVocabulary builds a Vocabulary from codes. Surrounding whitespace is
// trimmed and blank entries are ignored. An empty result is a configuration
// error: every record would otherwise be classified incorrect.
func NewVocabulary(codes []string) (*Vocabulary, error) {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	if len(set) == 0 {
		return nil, domain.NewConfigError("vocabulary", "no habitat codes loaded")
	}
	return &Vocabulary{codes: set}, nil
}

// LoadVocabulary reads one code per line from path.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return nil, domain.NewConfigError("vocabulary", "path not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary %s: %w", path, domain.NewConfigError("vocabulary", err.Error()))
	}
	defer f.Close()

	v, err := ReadVocabulary(f)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return v, nil
}

// ReadVocabulary parses a code list: one code per line, blank lines and lines
// starting with '#' are skipped. Only the first comma-separated field of a line
// is used, so a single-column CSV export with a header "code" also loads.
func ReadVocabulary(r io.Reader) (*Vocabulary, error) {
	var codes []string
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if i := strings.IndexByte(text, ','); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if line == 1 && strings.EqualFold(text, "code") {
			continue
		}
		codes = append(codes, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.NewConfigError("vocabulary", err.Error())
	}
	return NewVocabulary(codes)
}

// Contains reports whether code is a valid leaf habitat code.
// A nil Vocabulary contains nothing.
func (v *Vocabulary) Contains(code string) bool {
	if v == nil {
		return false
	}
	_, ok := v.codes[code]
	return ok
}

// Len returns the number of codes.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.codes)
}
