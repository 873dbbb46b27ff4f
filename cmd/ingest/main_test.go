package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marineevidence/combinedmap/internal/config"
)

const evidenceBaseTable = `POLYGON,GUI,NE_UID,Dataset_UID,HAB_TYPE,Eunis_L3
1,GB0001,NE_0001,,A3.21,A3.2
2,UKSM2018,NE_0002,,A5.1,A5.1
3,GB0003,NE_0003,,A9.9,A9.9
`

type fixture struct {
	dir, config, input, out string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	t.Setenv("DATABASE_DSN", "")

	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		input:  filepath.Join(dir, "evbase.csv"),
		out:    filepath.Join(dir, "out"),
	}
	vocab := filepath.Join(dir, "eunis.txt")
	writeFile(t, vocab, "A3.2\nA3.21\nA5.1\n")
	writeFile(t, f.input, evidenceBaseTable)
	writeFile(t, f.config, `
log:
  level: "error"
engine:
  vocabulary_path: "`+vocab+`"
output:
  dir: "`+f.out+`"
`)
	return f
}

func (f fixture) layer(container, name string) string {
	return filepath.Join(f.out, container, name+".csv")
}

func TestRun_EvidenceBase(t *testing.T) {
	f := newFixture(t)

	if code := run([]string{"--path", "evbase", "--input", f.input, "--config", f.config}); code != 0 {
		t.Fatalf("run exit code = %d, want 0", code)
	}

	data, err := os.ReadFile(f.layer("FormattedLayers", "NE_EUNIS_Corrected"))
	if err != nil {
		t.Fatalf("formatted layer not written: %v", err)
	}
	formatted := string(data)
	if !strings.Contains(formatted, "A3.21") {
		t.Errorf("formatted layer missing A3.21:\n%s", formatted)
	}
	if strings.Contains(formatted, "UKSM2018") {
		t.Errorf("excluded record written to formatted layer:\n%s", formatted)
	}

	if _, err := os.Stat(f.layer("ToCheck", "NE_EUNIS_Incorrect")); err != nil {
		t.Errorf("rejected layer not written: %v", err)
	}
	if _, err := os.Stat(f.layer("ToCheck", "NE_complexHabs")); !os.IsNotExist(err) {
		t.Errorf("empty flagged layer should not be written, stat err = %v", err)
	}
}

func TestRun_Strict(t *testing.T) {
	f := newFixture(t)

	code := run([]string{"--path", "evbase", "--input", f.input, "--config", f.config, "--strict"})
	if code != 1 {
		t.Errorf("strict run with a rejected record: exit code = %d, want 1", code)
	}
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)

	if code := run([]string{"--path", "evbase", "--input", f.input, "--config", f.config, "--dry-run"}); code != 0 {
		t.Fatalf("run exit code = %d, want 0", code)
	}
	if _, err := os.Stat(f.out); !os.IsNotExist(err) {
		t.Errorf("dry run should not create the output dir, stat err = %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"--bogus"}, 2},
		{"missing config file", []string{"--config", filepath.Join(f.dir, "missing.yaml")}, 1},
		{"unknown path", []string{"--config", f.config, "--path", "coastal", "--input", f.input}, 1},
		{"missing input flag", []string{"--config", f.config, "--path", "new"}, 1},
		{"input not found", []string{"--config", f.config, "--path", "new", "--input", filepath.Join(f.dir, "none.csv")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestExclusionLists(t *testing.T) {
	got := exclusionLists(config.ExclusionConfig{
		PreviousGUI:   []string{"EUSM"},
		EvidenceGUI:   []string{"UKSM"},
		EvidenceNEUID: []string{"NE_1848"},
	})
	if len(got.PreviousGUI) != 1 || got.PreviousGUI[0] != "EUSM" ||
		len(got.EvidenceGUI) != 1 || got.EvidenceGUI[0] != "UKSM" ||
		len(got.EvidenceNEUID) != 1 || got.EvidenceNEUID[0] != "NE_1848" {
		t.Errorf("exclusionLists = %+v", got)
	}
}
