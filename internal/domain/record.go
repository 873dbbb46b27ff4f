package domain

import "maps"

// Separators used inside habitat code strings.
const (
	// CompositeSeparator joins habitats present together in one polygon (a mosaic).
	CompositeSeparator = "+"
	// AlternativeSeparator joins habitats the surveyor could not choose between.
	AlternativeSeparator = "/"
)

// TopLevelLength is the number of leading characters of a code segment kept
// in its top-level class.
const TopLevelLength = 4

// Provider column names carried by survey attribute tables.
const (
	ColumnHabType       = "HAB_TYPE"
	ColumnEunisL3       = "Eunis_L3"
	ColumnOrigHab       = "ORIG_HAB"
	ColumnPolygon       = "POLYGON"
	ColumnGUI           = "GUI"
	ColumnNEUID         = "NE_UID"
	ColumnDatasetUID    = "Dataset_UID"
	ColumnMeshConfi     = "MESH_Confi"
	ColumnSumConf       = "SUM_CONF"
	ColumnMeshConfScore = "MESH_confidence_score"
	ColumnReason        = "REASON"
)

// ProvenanceColumns are the identifiers used for dataset filtering.
var ProvenanceColumns = []string{ColumnGUI, ColumnNEUID, ColumnDatasetUID}

// HabitatRecord holds one surveyed polygon's classification attributes.
type HabitatRecord struct {
	Polygon       int
	PrimaryCode   string
	TopLevelClass string
	Provenance    map[string]string
	Attributes    map[string]string

	// Reason annotates records routed to flagged_for_review or rejected_incorrect.
	Reason string
	// Corrections lists the names of correction passes that changed PrimaryCode.
	Corrections []string
}

// Clone returns a deep copy so batches can be transformed without aliasing maps.
func (r HabitatRecord) Clone() HabitatRecord {
	out := r
	out.Provenance = maps.Clone(r.Provenance)
	out.Attributes = maps.Clone(r.Attributes)
	if r.Corrections != nil {
		out.Corrections = append([]string(nil), r.Corrections...)
	}
	return out
}

// Source returns a provenance identifier or "" when absent.
func (r HabitatRecord) Source(key string) string {
	return r.Provenance[key]
}

// Attr returns a passthrough attribute or "" when absent.
func (r HabitatRecord) Attr(key string) string {
	return r.Attributes[key]
}

// SetAttr sets a passthrough attribute, allocating the map if needed.
func (r *HabitatRecord) SetAttr(key, value string) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]string)
	}
	r.Attributes[key] = value
}

// SetSource sets a provenance identifier, allocating the map if needed.
func (r *HabitatRecord) SetSource(key, value string) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]string)
	}
	r.Provenance[key] = value
}
