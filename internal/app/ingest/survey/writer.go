package survey

import (
	"context"
	"encoding/csv"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// ColumnCorrections lists the correction passes applied to a record.
const ColumnCorrections = "CORRECTIONS"

// leadingColumns are written first, in this order, for every layer.
var leadingColumns = []string{
	domain.ColumnPolygon,
	domain.ColumnGUI,
	domain.ColumnNEUID,
	domain.ColumnDatasetUID,
	domain.ColumnHabType,
	domain.ColumnEunisL3,
}

// Writer writes each layer as <Dir>/<container>/<layer>.csv.
type Writer struct {
	Dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the file a layer is written to.
func (w *Writer) Path(container domain.Container, layer string) string {
	return filepath.Join(w.Dir, string(container), layer+".csv")
}

// WriteLayer replaces the layer file with records. Attribute columns are the
// union over all records in name order; REASON and CORRECTIONS are appended
// only when some record carries them.
func (w *Writer) WriteLayer(ctx context.Context, container domain.Container, layer string, records []domain.HabitatRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := w.Path(container, layer)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create layer dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create layer %s: %w", layer, err)
	}

	if err := writeRecords(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write layer %s: %w", layer, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close layer %s: %w", layer, err)
	}
	return nil
}

func writeRecords(f *os.File, records []domain.HabitatRecord) error {
	attrs := make(map[string]struct{})
	var withReason, withCorrections bool
	for _, rec := range records {
		for k := range rec.Attributes {
			attrs[k] = struct{}{}
		}
		withReason = withReason || rec.Reason != ""
		withCorrections = withCorrections || len(rec.Corrections) > 0
	}
	attrCols := slices.Sorted(maps.Keys(attrs))

	header := append(slices.Clone(leadingColumns), attrCols...)
	if withReason {
		header = append(header, domain.ColumnReason)
	}
	if withCorrections {
		header = append(header, ColumnCorrections)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, rec := range records {
		row = row[:0]
		polygon := ""
		if rec.Polygon > 0 {
			polygon = strconv.Itoa(rec.Polygon)
		}
		row = append(row,
			polygon,
			rec.Source(domain.ColumnGUI),
			rec.Source(domain.ColumnNEUID),
			rec.Source(domain.ColumnDatasetUID),
			rec.PrimaryCode,
			rec.TopLevelClass,
		)
		for _, k := range attrCols {
			row = append(row, rec.Attr(k))
		}
		if withReason {
			row = append(row, rec.Reason)
		}
		if withCorrections {
			row = append(row, strings.Join(rec.Corrections, ";"))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
