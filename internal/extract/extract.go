// Package extract reads a dataset file in one of the three supported
// encodings into an in-memory table. Column order is preserved; numeric
// cells are inferred as int64 or float64, while dates stay strings until the
// transformer normalizes them.
package extract

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"txetl/internal/etlerr"
	"txetl/internal/records"
	"txetl/internal/schema"
)

// ReadFile reads path in the declared format and returns its contents as a
// table. The row count equals the number of data rows in the source.
func ReadFile(path string, format records.Format) (*records.Table, error) {
	switch format {
	case records.FormatCSV, records.FormatJSON, records.FormatParquet:
	default:
		return nil, etlerr.Wrap(etlerr.ErrUnsupportedFormat, "format %q", format)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, etlerr.Wrap(etlerr.ErrNotFound, "file %s", path)
		}
		return nil, etlerr.Wrap(etlerr.ErrIOFailure, "open %s: %v", path, err)
	}
	defer f.Close()

	var tbl *records.Table
	switch format {
	case records.FormatCSV:
		tbl, err = readCSV(f)
	case records.FormatJSON:
		tbl, err = readJSONL(f)
	case records.FormatParquet:
		tbl, err = readParquet(f)
	}
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrIOFailure, "read %s: %v", path, err)
	}

	log.Printf("extract: path=%s format=%s rows=%d", path, format, tbl.Len())
	return tbl, nil
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

func readCSV(r io.Reader) (*records.Table, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, 64*1024))
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		columns[i] = strings.TrimSpace(h)
	}

	tbl := records.NewTable(columns...)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(records.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = inferValue(row[i])
			}
		}
		tbl.Append(rec)
	}
	return tbl, nil
}

func readJSONL(r io.Reader) (*records.Table, error) {
	dec := json.NewDecoder(bufio.NewReaderSize(r, 64*1024))
	dec.UseNumber()

	var rows []records.Record
	seen := map[string]struct{}{}
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(rows)+1, err)
		}

		rec := make(records.Record, len(obj))
		for k, v := range obj {
			seen[k] = struct{}{}
			rec[k] = fromJSON(v)
		}
		rows = append(rows, rec)
	}

	tbl := records.NewTable(orderColumns(seen)...)
	tbl.Rows = rows
	return tbl, nil
}

// orderColumns arranges a decoded key set into the canonical transaction
// column order; keys outside the canonical schema follow, sorted. JSON
// objects carry no reliable key order, so the canonical order stands in.
func orderColumns(seen map[string]struct{}) []string {
	out := make([]string, 0, len(seen))
	for _, col := range schema.EnrichedColumns {
		if _, ok := seen[col]; ok {
			out = append(out, col)
			delete(seen, col)
		}
	}
	extras := make([]string, 0, len(seen))
	for k := range seen {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	return append(out, extras...)
}

// fromJSON converts decoded JSON values to the table value domain: numbers
// become int64 when they carry no fractional part, float64 otherwise.
func fromJSON(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	}
	f, err := n.Float64()
	if err != nil {
		return s
	}
	return f
}

// inferValue types a delimited-text cell: int64, then float64, else string.
// Empty cells are null.
func inferValue(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
