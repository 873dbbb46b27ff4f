package habitat

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/marineevidence/combinedmap/internal/domain"
)

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := LoadVocabulary(testdataPath(t, "eunis_sample.txt"))
	if err != nil {
		t.Fatalf("load vocabulary: %v", err)
	}
	return v
}

func rec(code, topLevel string) domain.HabitatRecord {
	return domain.HabitatRecord{PrimaryCode: code, TopLevelClass: topLevel}
}

func codes(records []domain.HabitatRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PrimaryCode
	}
	return out
}
