package main

import (
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/marineevidence/combinedmap/internal/domain"
)

func TestRun_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"--bogus"}, 2},
		{"malformed run id", []string{"--run", "not-a-uuid"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestRun_DatabaseNotConfigured(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("ENGINE_VOCABULARY_PATH", "/data/eunis.txt")
	t.Setenv("LOG_LEVEL", "error")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	if got := run([]string{"--run", uuid.NewString()}); got != 1 {
		t.Errorf("run without database = %d, want 1", got)
	}
}

func TestGroupByLayer(t *testing.T) {
	records := []domain.StoredRecord{
		{Layer: "NE_EUNIS_Incorrect", Record: domain.HabitatRecord{Polygon: 1}},
		{Layer: "NE_complexHabs", Record: domain.HabitatRecord{Polygon: 2}},
		{Layer: "NE_EUNIS_Incorrect", Record: domain.HabitatRecord{Polygon: 3}},
	}

	got := groupByLayer(records)

	if len(got) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(got))
	}
	incorrect := got["NE_EUNIS_Incorrect"]
	if len(incorrect) != 2 || incorrect[0].Polygon != 1 || incorrect[1].Polygon != 3 {
		t.Errorf("NE_EUNIS_Incorrect = %+v, want polygons 1 and 3 in order", incorrect)
	}
	if len(got["NE_complexHabs"]) != 1 {
		t.Errorf("NE_complexHabs = %+v, want one record", got["NE_complexHabs"])
	}
}
