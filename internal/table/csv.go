package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"
)

// ExportColumn is one named column of a caller-shaped CSV export.
type ExportColumn struct {
	Header   string
	Selector func(Row) any
}

// ExportCSV serializes the full unfiltered snapshot, ignoring the current
// query and pagination. Headers are derived from row keys, sorted for a
// stable column order since the source rows are unordered maps.
func (b *Browser) ExportCSV() ([]byte, error) {
	if len(b.rows) == 0 {
		return []byte{}, nil
	}

	keySet := map[string]struct{}{}
	for _, row := range b.rows {
		for k := range row {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(keys); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range b.rows {
		record := make([]string, len(keys))
		for i, k := range keys {
			record[i] = stringify(row[k])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportShapedCSV serializes the full unfiltered snapshot through an explicit
// column shaping, used by report screens that pre-map rows to named columns.
func (b *Browser) ExportShapedCSV(columns []ExportColumn) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range b.rows {
		record := make([]string, len(columns))
		for i, c := range columns {
			record[i] = stringify(c.Selector(row))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename builds the download name with a human-readable timestamp.
func ExportFilename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("02-Jan-2006_03.04PM"))
}
