package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"txetl/internal/etlerr"
	"txetl/internal/generate"
	"txetl/internal/records"
	"txetl/internal/schema"
)

func TestReadFileNotFound(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"), records.FormatCSV)
	if !errors.Is(err, etlerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReadFileUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.xml")
	if err := os.WriteFile(path, []byte("<x/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadFile(path, records.Format("xml"))
	if !errors.Is(err, etlerr.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

// TestRoundTrip writes a generated dataset in each encoding and reads it
// back, requiring row-for-row identical data modulo type formatting.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	const n = 120
	want, err := generate.Generate(generate.Config{Rows: n, Seed: 99})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, format := range []records.Format{records.FormatCSV, records.FormatJSON, records.FormatParquet} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "transactions."+string(format))
			if err := generate.WriteFile(want, path, format); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			got, err := ReadFile(path, format)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if got.Len() != n {
				t.Fatalf("rows = %d, want %d", got.Len(), n)
			}
			if len(got.Columns) != len(want.Columns) {
				t.Fatalf("columns = %v, want %v", got.Columns, want.Columns)
			}
			for i, col := range got.Columns {
				if col != want.Columns[i] {
					t.Fatalf("column %d = %s, want %s", i, col, want.Columns[i])
				}
			}

			for i := range want.Rows {
				for _, col := range want.Columns {
					if !cellsEqual(want.Rows[i][col], got.Rows[i][col]) {
						t.Fatalf("row %d column %s: got %v (%T), want %v (%T)",
							i, col, got.Rows[i][col], got.Rows[i][col],
							want.Rows[i][col], want.Rows[i][col])
					}
				}
			}
		})
	}
}

func TestReadCSVTypesAndNulls(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mini.csv")
	data := "transaction_id,quantity,unit_price,transaction_date,customer_id\n" +
		"TXN00000001,3,19.99,2023-05-01 10:30:00,\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadFile(path, records.FormatCSV)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("rows = %d", tbl.Len())
	}

	rec := tbl.Rows[0]
	if _, ok := rec[schema.ColQuantity].(int64); !ok {
		t.Fatalf("quantity type = %T, want int64", rec[schema.ColQuantity])
	}
	if _, ok := rec[schema.ColUnitPrice].(float64); !ok {
		t.Fatalf("unit_price type = %T, want float64", rec[schema.ColUnitPrice])
	}
	if _, ok := rec[schema.ColTransactionDate].(string); !ok {
		t.Fatalf("transaction_date type = %T, want string at extract stage", rec[schema.ColTransactionDate])
	}
	if !rec.IsNull(schema.ColCustomerID) {
		t.Fatal("empty cell should be null")
	}
}

// cellsEqual compares cells numerically where either side is numeric, since
// text encodings may narrow integral floats to ints.
func cellsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	}
	return 0, false
}
