package generate

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"txetl/internal/records"
	"txetl/internal/schema"
)

// writeCSV emits a header row followed by one delimited row per record.
// Cells are rendered with formatCell so numeric round-trips are lossless.
func writeCSV(w io.Writer, tbl *records.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.Columns); err != nil {
		return err
	}

	row := make([]string, len(tbl.Columns))
	for _, rec := range tbl.Rows {
		for i, col := range tbl.Columns {
			row[i] = formatCell(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeJSONL emits one JSON object per line. Keys are written in table column
// order so all three encodings present identical column order.
func writeJSONL(w io.Writer, tbl *records.Table) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	for _, rec := range tbl.Rows {
		if err := bw.WriteByte('{'); err != nil {
			return err
		}
		for i, col := range tbl.Columns {
			if i > 0 {
				bw.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return err
			}
			val, err := json.Marshal(jsonValue(rec[col]))
			if err != nil {
				return err
			}
			bw.Write(key)
			bw.WriteByte(':')
			bw.Write(val)
		}
		if _, err := bw.WriteString("}\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatCell renders a cell for the delimited text encoding.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(schema.Layout)
	default:
		return fmt.Sprint(t)
	}
}

// jsonValue converts a cell to a JSON-friendly value; timestamps use the
// shared wire layout instead of RFC 3339.
func jsonValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(schema.Layout)
	}
	return v
}
