// Command etl generates a synthetic transaction dataset and runs it through
// the extract/transform/load pipeline against the configured relational
// store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"txetl/internal/config"
	"txetl/internal/etl"
	"txetl/internal/generate"
	"txetl/internal/records"
	"txetl/internal/storage"

	// Register all storage backends; the config selects which one runs.
	_ "txetl/internal/storage/mysql"
	_ "txetl/internal/storage/postgres"
	_ "txetl/internal/storage/sqlite"
)

func main() {
	var (
		cfgPath      string
		rows         int
		formatFlg    string
		backendFlg   string
		out          string
		seed         int64
		generateOnly bool
	)

	flag.StringVar(&cfgPath, "config", "", "JSON config file path (optional)")
	flag.IntVar(&rows, "rows", 0, "rows to generate (overrides config)")
	flag.StringVar(&formatFlg, "format", "", "dataset encoding: csv, json, parquet")
	flag.StringVar(&backendFlg, "backend", "", "storage backend: postgres, sqlite, mysql")
	flag.StringVar(&out, "out", "", "dataset file path (default <data_dir>/transactions.<format>)")
	flag.Int64Var(&seed, "seed", 0, "generator seed (0 = time-derived)")
	flag.BoolVar(&generateOnly, "generate-only", false, "generate the dataset and exit")
	flag.Parse()

	// .env is optional; absent files are not an error.
	_ = godotenv.Load()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fatalf("%v", err)
		}
	}
	cfg = config.FromEnv(cfg)

	if rows > 0 {
		cfg.Rows = rows
	}
	if formatFlg != "" {
		cfg.Format = formatFlg
	}
	if backendFlg != "" {
		cfg.Backend = backendFlg
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	format, err := records.ParseFormat(cfg.Format)
	if err != nil {
		fatalf("%v", err)
	}
	if out == "" {
		out = filepath.Join(cfg.DataDir, "transactions."+string(format))
	}

	if _, err := generate.Generate(generate.Config{
		Rows:   cfg.Rows,
		Format: format,
		Path:   out,
		Seed:   cfg.Seed,
	}); err != nil {
		fatalf("generate: %v", err)
	}
	if generateOnly {
		return
	}

	ctx := context.Background()
	repo, err := storage.Open(ctx, cfg.Backend, cfg.DSN())
	if err != nil {
		fatalf("storage: %v", err)
	}
	defer repo.Close()

	res, err := etl.Run(ctx, etl.Options{
		InputPath: out,
		Format:    format,
		BatchSize: cfg.BatchSize,
	}, repo)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	fmt.Printf("run %s: %d rows loaded, %d categories, %.2f total revenue in %s\n",
		res.RunID, res.RowsLoaded, res.Categories, res.TotalRevenue, res.Elapsed)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
