package etl_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"txetl/internal/etl"
	"txetl/internal/etlerr"
	"txetl/internal/generate"
	"txetl/internal/records"
	"txetl/internal/schema"
	"txetl/internal/storage"
	_ "txetl/internal/storage/sqlite"
)

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open check connection: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// TestRunEndToEnd generates a seeded dataset, runs the whole pipeline against
// a file-backed SQLite store, and checks the run statistics against the
// database contents. A second run over the same input must end in the same
// state because both loads replace.
func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	const n = 300
	ctx := context.Background()
	dir := t.TempDir()

	input := filepath.Join(dir, "transactions.csv")
	if _, err := generate.Generate(generate.Config{
		Rows:   n,
		Seed:   21,
		Format: records.FormatCSV,
		Path:   input,
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	dbPath := filepath.Join(dir, "etl.db")
	repo, err := storage.Open(ctx, "sqlite", dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()

	opts := etl.Options{InputPath: input, Format: records.FormatCSV, BatchSize: 64}

	res, err := etl.Run(ctx, opts, repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("empty run id")
	}
	if res.RowsExtracted != n {
		t.Fatalf("RowsExtracted = %d, want %d", res.RowsExtracted, n)
	}
	// Generated data is already clean, so nothing should be dropped.
	if res.RowsProcessed != n || res.RowsLoaded != int64(n) {
		t.Fatalf("RowsProcessed = %d RowsLoaded = %d, want %d", res.RowsProcessed, res.RowsLoaded, n)
	}
	if res.Categories < 1 || res.Categories > len(schema.Categories) {
		t.Fatalf("Categories = %d", res.Categories)
	}
	if res.TotalRevenue <= 0 {
		t.Fatalf("TotalRevenue = %v", res.TotalRevenue)
	}

	if got := countRows(t, dbPath, "transactions"); got != n {
		t.Fatalf("transactions rows = %d, want %d", got, n)
	}
	if got := countRows(t, dbPath, "transaction_summary"); got != res.Categories {
		t.Fatalf("transaction_summary rows = %d, want %d", got, res.Categories)
	}

	// Re-run over the same input: replace semantics, same end state.
	res2, err := etl.Run(ctx, opts, repo)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res2.RowsLoaded != res.RowsLoaded || res2.Categories != res.Categories {
		t.Fatalf("second run diverged: %+v vs %+v", res2, res)
	}
	if got := countRows(t, dbPath, "transactions"); got != n {
		t.Fatalf("transactions rows after re-run = %d, want %d", got, n)
	}
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := storage.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "etl.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()

	_, err = etl.Run(ctx, etl.Options{
		InputPath: filepath.Join(t.TempDir(), "absent.csv"),
		Format:    records.FormatCSV,
	}, repo)
	if !errors.Is(err, etlerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
