// Package survey reads provider attribute tables into habitat records and
// writes routed partitions back out as layer files.
// Parsing is pure: readers in, domain structs out. No database dependencies.
package survey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// ParseOptions controls field cleanup while reading.
type ParseOptions struct {
	// Normalize applies domain.NormalizeField to every value, stripping line
	// breaks and blanking whitespace-only fields.
	Normalize bool
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, opts ParseOptions) ([]domain.HabitatRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey table: %w", err)
	}
	defer f.Close()

	records, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// Parse reads a CSV attribute table with a header row. HAB_TYPE and Eunis_L3
// become the primary code and top-level class, GUI, NE_UID and Dataset_UID
// become provenance, and every other column is carried as an attribute.
// A blank POLYGON is left as zero; a non-numeric one is an error.
func Parse(r io.Reader, opts ParseOptions) ([]domain.HabitatRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []domain.HabitatRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blankRow(row) {
			continue
		}

		rec, err := toRecord(header, row, opts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func toRecord(header, row []string, opts ParseOptions) (domain.HabitatRecord, error) {
	var rec domain.HabitatRecord
	for i, col := range header {
		if col == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if opts.Normalize {
			value = domain.NormalizeField(value)
		}

		switch col {
		case domain.ColumnHabType:
			rec.PrimaryCode = value
		case domain.ColumnEunisL3:
			rec.TopLevelClass = value
		case domain.ColumnPolygon:
			if strings.TrimSpace(value) == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return rec, fmt.Errorf("invalid %s %q", domain.ColumnPolygon, value)
			}
			rec.Polygon = n
		case domain.ColumnGUI, domain.ColumnNEUID, domain.ColumnDatasetUID:
			rec.SetSource(col, value)
		default:
			rec.SetAttr(col, value)
		}
	}
	return rec, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseUIDList reads the list of publicly accessible dataset identifiers.
// The UID column is located by header name; without one, the first column
// is used and the first row is treated as data.
func ParseUIDList(r io.Reader) (map[string]bool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	uids := make(map[string]bool)
	col := 0
	for first := true; ; first = false {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read uid list: %w", err)
		}
		if first {
			if i := headerIndex(row, "UID"); i >= 0 {
				col = i
				continue
			}
		}
		if col < len(row) {
			if uid := strings.TrimSpace(row[col]); uid != "" {
				uids[uid] = true
			}
		}
	}
	return uids, nil
}

// ParseUIDFile opens path and parses it with ParseUIDList.
func ParseUIDFile(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open uid list: %w", err)
	}
	defer f.Close()
	return ParseUIDList(f)
}

func headerIndex(row []string, name string) int {
	for i, v := range row {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(v, "\ufeff")), name) {
			return i
		}
	}
	return -1
}
