// Package ingest runs one ingestion path end to end: field bootstrap,
// per-path derivations, provenance exclusions, the habitat engine and output
// routing.
package ingest

import (
	"fmt"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
	"github.com/marineevidence/combinedmap/internal/habitat"
)

// Path identifies an ingestion path.
type Path string

const (
	PathNewSurveys      Path = "new"
	PathPreviousSurveys Path = "previous"
	PathModelled        Path = "modelled"
	PathEvidenceBase    Path = "evbase"
)

// Paths lists every ingestion path.
func Paths() []Path {
	return []Path{PathNewSurveys, PathPreviousSurveys, PathModelled, PathEvidenceBase}
}

// ParsePath resolves a path name.
func ParsePath(s string) (Path, error) {
	p := Path(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Paths() {
		if p == known {
			return p, nil
		}
	}
	return "", domain.NewConfigError("path", fmt.Sprintf("unknown ingestion path %q", s))
}

// Exclusion drops records whose provenance column contains any of the
// listed identifiers.
type Exclusion struct {
	Column string
	Any    []string
}

// Match reports whether rec is excluded and by which identifier.
func (e Exclusion) Match(rec domain.HabitatRecord) (string, bool) {
	value := rec.Source(e.Column)
	for _, id := range e.Any {
		if strings.Contains(value, id) {
			return id, true
		}
	}
	return "", false
}

// ExclusionLists holds the provenance identifiers excluded per path. They
// come from configuration; nil lists exclude nothing.
type ExclusionLists struct {
	PreviousGUI   []string
	EvidenceGUI   []string
	EvidenceNEUID []string
}

func exclusions(pairs ...Exclusion) []Exclusion {
	var out []Exclusion
	for _, e := range pairs {
		if len(e.Any) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// PathSpec is everything that differs between ingestion paths. The engine
// itself is shared.
type PathSpec struct {
	Path Path
	// Match is the initial validation gate.
	Match habitat.MatchMode
	// Correct runs the heuristic corrector on the incorrect subset.
	Correct bool
	// Normalize strips line breaks and blank fields while parsing.
	Normalize  bool
	Derive     []Derivation
	Exclusions []Exclusion
	// Layers names the output layer of every partition.
	Layers map[domain.Partition]string
}

// Layer returns the output layer for partition p.
func (s PathSpec) Layer(p domain.Partition) string {
	return s.Layers[p]
}

// Spec returns the PathSpec for p with the configured exclusion lists.
func Spec(p Path, ex ExclusionLists) (PathSpec, error) {
	switch p {
	case PathNewSurveys:
		return PathSpec{
			Path:  p,
			Match: habitat.MatchSegments,
			Derive: []Derivation{
				NumberPolygons(),
				FillAttr(domain.ColumnMeshConfi, domain.ColumnSumConf),
			},
			Layers: layers("NewSurveyMaps", "NewSurveyMaps_ComplexHabs", "NewSurveyMaps_IncorrectCodes"),
		}, nil
	case PathPreviousSurveys:
		return PathSpec{
			Path:       p,
			Match:      habitat.MatchSegments,
			Exclusions: exclusions(Exclusion{Column: domain.ColumnGUI, Any: ex.PreviousGUI}),
			Layers:     layers("OldOffshoreSurveys", "OldOffshoreSurveys_ComplexHabs", "OldOffshoreSurveys_IncorrectCodes"),
		}, nil
	case PathModelled:
		return PathSpec{
			Path:   p,
			Match:  habitat.MatchSegments,
			Layers: layers("EUSeaMap", "EUSeaMap_ComplexHabs", "EUSeaMap_IncorrectCodes"),
		}, nil
	case PathEvidenceBase:
		return PathSpec{
			Path:      p,
			Match:     habitat.MatchWhole,
			Correct:   true,
			Normalize: true,
			Derive: []Derivation{
				FillSource(domain.ColumnGUI, domain.ColumnDatasetUID),
				FillSource(domain.ColumnNEUID, domain.ColumnDatasetUID),
				NumberPolygons(),
				CopyAttr(domain.ColumnMeshConfi, domain.ColumnMeshConfScore),
				PreferOriginalCode("A", "B"),
			},
			Exclusions: exclusions(
				Exclusion{Column: domain.ColumnGUI, Any: ex.EvidenceGUI},
				Exclusion{Column: domain.ColumnNEUID, Any: ex.EvidenceNEUID},
			),
			Layers: layers("NE_EUNIS_Corrected", "NE_complexHabs", "NE_EUNIS_Incorrect"),
		}, nil
	}
	return PathSpec{}, domain.NewConfigError("path", fmt.Sprintf("unknown ingestion path %q", p))
}

func layers(formatted, flagged, rejected string) map[domain.Partition]string {
	return map[domain.Partition]string{
		domain.PartitionFormattedCorrect:  formatted,
		domain.PartitionFlaggedForReview:  flagged,
		domain.PartitionRejectedIncorrect: rejected,
	}
}
