package ingest

import (
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Derivation is a record-level preparation step run before exclusions.
// It mutates the batch in place.
type Derivation struct {
	Name  string
	Apply func(records []domain.HabitatRecord)
}

// BootstrapColumns are added empty to every record that lacks them.
var BootstrapColumns = []string{domain.ColumnMeshConfi, domain.ColumnOrigHab}

// Bootstrap ensures every provenance column and BootstrapColumns attribute
// is present so later steps never see a missing key.
func Bootstrap(records []domain.HabitatRecord) {
	for i := range records {
		rec := &records[i]
		for _, col := range domain.ProvenanceColumns {
			if _, ok := rec.Provenance[col]; !ok {
				rec.SetSource(col, "")
			}
		}
		for _, col := range BootstrapColumns {
			if _, ok := rec.Attributes[col]; !ok {
				rec.SetAttr(col, "")
			}
		}
	}
}

// NumberPolygons assigns POLYGON 1..n in input order.
func NumberPolygons() Derivation {
	return Derivation{Name: "number-polygons", Apply: func(records []domain.HabitatRecord) {
		for i := range records {
			records[i].Polygon = i + 1
		}
	}}
}

// FillAttr copies attribute src into dst where dst is blank.
func FillAttr(dst, src string) Derivation {
	return Derivation{Name: "fill-" + dst, Apply: func(records []domain.HabitatRecord) {
		for i := range records {
			if strings.TrimSpace(records[i].Attr(dst)) == "" {
				records[i].SetAttr(dst, records[i].Attr(src))
			}
		}
	}}
}

// CopyAttr overwrites attribute dst with src.
func CopyAttr(dst, src string) Derivation {
	return Derivation{Name: "copy-" + dst, Apply: func(records []domain.HabitatRecord) {
		for i := range records {
			records[i].SetAttr(dst, records[i].Attr(src))
		}
	}}
}

// FillSource copies provenance src into dst where dst is blank.
func FillSource(dst, src string) Derivation {
	return Derivation{Name: "fill-" + dst, Apply: func(records []domain.HabitatRecord) {
		for i := range records {
			if strings.TrimSpace(records[i].Source(dst)) == "" {
				records[i].SetSource(dst, records[i].Source(src))
			}
		}
	}}
}

// PreferOriginalCode uses ORIG_HAB as the working code when it starts with
// one of prefixes. ORIG_HAB carries more detailed codes than HAB_TYPE but
// also free text, which the prefix test keeps out.
func PreferOriginalCode(prefixes ...string) Derivation {
	return Derivation{Name: "prefer-orig-hab", Apply: func(records []domain.HabitatRecord) {
		for i := range records {
			orig := records[i].Attr(domain.ColumnOrigHab)
			for _, p := range prefixes {
				if strings.HasPrefix(orig, p) {
					records[i].PrimaryCode = orig
					break
				}
			}
		}
	}}
}
