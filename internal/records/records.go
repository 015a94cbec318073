// Package records holds the in-memory tabular model passed between pipeline
// stages. A Table preserves column order from the source encoding; a Record is
// one row keyed by column name. Stages never mutate a Table they received:
// each stage builds a new Table from its input.
package records

import (
	"strings"

	"txetl/internal/etlerr"
)

// Record is a single row. Values are string, int64, float64, bool, time.Time,
// or nil for a missing/null cell.
type Record map[string]any

// Table is an ordered set of columns plus the rows that populate them.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable returns an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row to the table.
func (t *Table) Append(r Record) { t.Rows = append(t.Rows, r) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RowValues returns r's values aligned to the table's column order. Missing
// cells yield nil.
func (t *Table) RowValues(r Record) []any {
	out := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = r[c]
	}
	return out
}

// IsNull reports whether key is absent, nil, or an empty string in r. Empty
// strings count as null because the row-oriented text encoding has no other
// way to express a missing value.
func (r Record) IsNull(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

// String returns the string value for key, or "" when absent or non-string.
func (r Record) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Float returns the numeric value for key as float64. The second result is
// false when the cell is absent or not numeric.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the integral value for key. Float values are accepted when they
// carry no fractional part, which is how the line-delimited text decoder hands
// over whole numbers.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// Format identifies a file encoding understood by the generator and extractor.
type Format string

const (
	// FormatCSV is row-oriented delimited text with a header row.
	FormatCSV Format = "csv"
	// FormatJSON is line-delimited structured text, one record object per line.
	FormatJSON Format = "json"
	// FormatParquet is self-describing, compressed columnar binary.
	FormatParquet Format = "parquet"
)

// ParseFormat maps a user-supplied encoding name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "jsonl", "ndjson":
		return FormatJSON, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", etlerr.Wrap(etlerr.ErrUnsupportedFormat, "format %q", s)
}
