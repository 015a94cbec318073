package generate

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"txetl/internal/etlerr"
	"txetl/internal/records"
	"txetl/internal/schema"
)

func TestGenerateRejectsNonPositiveRows(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -1, -100} {
		if _, err := Generate(Config{Rows: n}); !errors.Is(err, etlerr.ErrInvalidArgument) {
			t.Fatalf("Generate(rows=%d) err = %v, want ErrInvalidArgument", n, err)
		}
	}
}

// TestGenerateInvariants checks the per-row contracts over a full dataset:
// exact row count, pairwise-distinct ids, enum membership, value ranges, and
// the total_amount formula.
func TestGenerateInvariants(t *testing.T) {
	t.Parallel()

	const n = 500
	tbl, err := Generate(Config{Rows: n, Seed: 42})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tbl.Len() != n {
		t.Fatalf("rows = %d, want %d", tbl.Len(), n)
	}
	if len(tbl.Columns) != len(schema.TransactionColumns) {
		t.Fatalf("columns = %v", tbl.Columns)
	}

	ids := make(map[string]struct{}, n)
	windowEnd := schema.WindowStart().Add((schema.WindowDays + 1) * 24 * time.Hour)

	for i, rec := range tbl.Rows {
		id := rec.String(schema.ColTransactionID)
		if _, dup := ids[id]; dup {
			t.Fatalf("row %d: duplicate transaction_id %s", i, id)
		}
		ids[id] = struct{}{}

		if !contains(schema.Categories, rec.String(schema.ColCategory)) {
			t.Fatalf("row %d: category %q outside enumeration", i, rec.String(schema.ColCategory))
		}
		if !contains(schema.Statuses, rec.String(schema.ColStatus)) {
			t.Fatalf("row %d: status %q outside enumeration", i, rec.String(schema.ColStatus))
		}
		if !contains(schema.PaymentMethods, rec.String(schema.ColPaymentMethod)) {
			t.Fatalf("row %d: payment_method %q outside enumeration", i, rec.String(schema.ColPaymentMethod))
		}

		qty, _ := rec.Int(schema.ColQuantity)
		if qty < 1 || qty > 10 {
			t.Fatalf("row %d: quantity %d outside [1,10]", i, qty)
		}
		price, _ := rec.Float(schema.ColUnitPrice)
		if price < 5 || price > 500 {
			t.Fatalf("row %d: unit_price %.2f outside [5,500]", i, price)
		}
		discount, _ := rec.Int(schema.ColDiscountPercent)
		if !containsInt(schema.Discounts, discount) {
			t.Fatalf("row %d: discount %d outside enumeration", i, discount)
		}

		total, _ := rec.Float(schema.ColTotalAmount)
		want := math.Round(float64(qty)*price*(1-float64(discount)/100)*(1+schema.TaxRate)*100) / 100
		if total != want {
			t.Fatalf("row %d: total_amount = %v, want %v", i, total, want)
		}

		ts, err := time.Parse(schema.Layout, rec.String(schema.ColTransactionDate))
		if err != nil {
			t.Fatalf("row %d: transaction_date %q: %v", i, rec.String(schema.ColTransactionDate), err)
		}
		if ts.Before(schema.WindowStart()) || !ts.Before(windowEnd) {
			t.Fatalf("row %d: transaction_date %s outside window", i, ts)
		}
	}
}

func TestGenerateSeedDeterminism(t *testing.T) {
	t.Parallel()

	a, err := Generate(Config{Rows: 50, Seed: 7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(Config{Rows: 50, Seed: 7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range a.Rows {
		for _, col := range a.Columns {
			if a.Rows[i][col] != b.Rows[i][col] {
				t.Fatalf("row %d column %s differs across identical seeds", i, col)
			}
		}
	}
}

// TestWriteFileCreatesParentDirs verifies the generator creates missing
// directories and truncates pre-existing files.
func TestWriteFileCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deeper", "transactions.csv")
	if _, err := Generate(Config{Rows: 10, Seed: 1, Format: records.FormatCSV, Path: path}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	first, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	// Smaller second write must fully replace the first.
	if _, err := Generate(Config{Rows: 2, Seed: 1, Format: records.FormatCSV, Path: path}); err != nil {
		t.Fatalf("Generate (overwrite): %v", err)
	}
	second, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if second.Size() >= first.Size() {
		t.Fatalf("overwrite did not truncate: %d -> %d bytes", first.Size(), second.Size())
	}
}

func TestWriteFileUnknownFormat(t *testing.T) {
	t.Parallel()

	tbl := records.NewTable("a")
	err := WriteFile(tbl, filepath.Join(t.TempDir(), "x.bin"), records.Format("avro"))
	if !errors.Is(err, etlerr.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt(s []int64, v int64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
