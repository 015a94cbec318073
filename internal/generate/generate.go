// Package generate produces synthetic e-commerce transaction datasets. Fields
// are sampled independently from fixed enumerations and uniform ranges;
// total_amount is computed once at creation from the pricing formula. The
// resulting table can be written out as CSV, line-delimited JSON, or Parquet.
package generate

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"txetl/internal/etlerr"
	"txetl/internal/records"
	"txetl/internal/schema"
)

// Config controls one generation run.
type Config struct {
	// Rows is the number of transactions to generate. Must be > 0.
	Rows int

	// Format selects the file encoding when Path is set.
	Format records.Format

	// Path is the output file location. Empty means in-memory only.
	Path string

	// Seed seeds the random source. Zero picks a time-derived seed, so two
	// runs with identical parameters produce different but equally valid data.
	Seed int64
}

// Generate builds a synthetic transaction table of cfg.Rows rows and, when
// cfg.Path is set, writes it in cfg.Format, creating parent directories and
// overwriting any existing file.
func Generate(cfg Config) (*records.Table, error) {
	if cfg.Rows <= 0 {
		return nil, etlerr.Wrap(etlerr.ErrInvalidArgument, "rows must be positive, got %d", cfg.Rows)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Customer pool sized n/10 so repeat customers occur.
	pool := cfg.Rows / 10
	if pool < 1 {
		pool = 1
	}

	start := schema.WindowStart()
	tbl := records.NewTable(schema.TransactionColumns...)

	for i := 0; i < cfg.Rows; i++ {
		customer := rng.Intn(pool) + 1
		qty := int64(rng.Intn(10) + 1)
		price := round2(5.0 + rng.Float64()*495.0)
		discount := schema.Discounts[rng.Intn(len(schema.Discounts))]
		total := round2(float64(qty) * price * (1 - float64(discount)/100) * (1 + schema.TaxRate))
		date := start.Add(time.Duration(rng.Intn(schema.WindowDays+1)) * 24 * time.Hour)

		tbl.Append(records.Record{
			schema.ColTransactionID:   fmt.Sprintf("TXN%08d", i),
			schema.ColCustomerID:      fmt.Sprintf("CUST%06d", customer),
			schema.ColProductName:     fmt.Sprintf("Product_%d", rng.Intn(1000)+1),
			schema.ColCategory:        schema.Categories[rng.Intn(len(schema.Categories))],
			schema.ColQuantity:        qty,
			schema.ColUnitPrice:       price,
			schema.ColTotalAmount:     total,
			schema.ColDiscountPercent: discount,
			schema.ColTaxRate:         schema.TaxRate,
			schema.ColPaymentMethod:   schema.PaymentMethods[rng.Intn(len(schema.PaymentMethods))],
			schema.ColStatus:          schema.Statuses[rng.Intn(len(schema.Statuses))],
			schema.ColTransactionDate: date.Format(schema.Layout),
			schema.ColShippingCountry: schema.Countries[rng.Intn(len(schema.Countries))],
			schema.ColCustomerEmail:   fmt.Sprintf("customer%d@example.com", customer),
		})
	}

	if cfg.Path != "" {
		if err := WriteFile(tbl, cfg.Path, cfg.Format); err != nil {
			return nil, err
		}
		log.Printf("generate: rows=%d format=%s path=%s", cfg.Rows, cfg.Format, cfg.Path)
	}

	return tbl, nil
}

// WriteFile encodes tbl to path in the given format. Parent directories are
// created as needed; an existing file at path is truncated.
func WriteFile(tbl *records.Table, path string, format records.Format) error {
	switch format {
	case records.FormatCSV, records.FormatJSON, records.FormatParquet:
	default:
		return etlerr.Wrap(etlerr.ErrUnsupportedFormat, "format %q", format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return etlerr.Wrap(etlerr.ErrIOFailure, "mkdir %s: %v", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return etlerr.Wrap(etlerr.ErrIOFailure, "create %s: %v", path, err)
	}
	defer f.Close()

	switch format {
	case records.FormatCSV:
		err = writeCSV(f, tbl)
	case records.FormatJSON:
		err = writeJSONL(f, tbl)
	case records.FormatParquet:
		err = writeParquet(f, tbl)
	}
	if err != nil {
		return etlerr.Wrap(etlerr.ErrIOFailure, "write %s: %v", path, err)
	}

	if err := f.Close(); err != nil {
		return etlerr.Wrap(etlerr.ErrIOFailure, "close %s: %v", path, err)
	}
	return nil
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
