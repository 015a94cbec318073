// Package transform implements the clean/validate/enrich stage. Steps run in
// a fixed order, each narrowing or enriching the surviving row set:
//
//  1. de-duplicate by transaction_id, keeping the first occurrence
//  2. drop rows with a null transaction_id, customer_id, or total_amount
//  3. drop rows with total_amount <= 0
//  4. drop rows with quantity <= 0
//  5. parse transaction_date; unparseable dates drop the row (counted, not fatal)
//  6. derive year, month, day_of_week, is_weekend
//  7. derive customer_segment from total_amount buckets
//  8. derive estimated_profit
//
// Row-level drops in steps 2-5 are intentional data-quality filtering, not
// errors. total_amount is trusted as generated; only its sign is checked.
package transform

import (
	"log"
	"math"
	"time"

	"github.com/zeebo/xxh3"

	"txetl/internal/etlerr"
	"txetl/internal/records"
	"txetl/internal/schema"
)

// Stats reports what the transformer did to the input set.
type Stats struct {
	Input         int
	Output        int
	Duplicates    int
	MissingValues int
	BadAmount     int
	BadQuantity   int
	BadDate       int
}

// requiredColumns must be present in the input or the whole operation fails.
var requiredColumns = []string{
	schema.ColTransactionID,
	schema.ColCustomerID,
	schema.ColTotalAmount,
	schema.ColQuantity,
	schema.ColTransactionDate,
}

// Apply runs the full transformation over in and returns the enriched set.
// The input table is not modified. Output row count never exceeds input row
// count, and no surviving row violates the filter predicates.
func Apply(in *records.Table) (*records.Table, Stats, error) {
	stats := Stats{Input: in.Len()}

	for _, col := range requiredColumns {
		if !in.HasColumn(col) {
			return nil, stats, etlerr.Wrap(etlerr.ErrSchema, "required column %q absent", col)
		}
	}

	out := records.NewTable(outputColumns(in.Columns)...)

	// Seen-set over 128-bit xxh3 digests of transaction_id: 16 bytes per key
	// regardless of id length.
	seen := make(map[xxh3.Uint128]struct{}, in.Len())

	for _, rec := range in.Rows {
		// Step 1: dedup by transaction_id. Rows without an id pass through
		// here; step 2 removes them.
		if !rec.IsNull(schema.ColTransactionID) {
			key := xxh3.HashString128(rec.String(schema.ColTransactionID))
			if _, dup := seen[key]; dup {
				stats.Duplicates++
				continue
			}
			seen[key] = struct{}{}
		}

		// Step 2: required values.
		if rec.IsNull(schema.ColTransactionID) ||
			rec.IsNull(schema.ColCustomerID) ||
			rec.IsNull(schema.ColTotalAmount) {
			stats.MissingValues++
			continue
		}

		// Step 3: positive amount.
		total, ok := rec.Float(schema.ColTotalAmount)
		if !ok || total <= 0 {
			stats.BadAmount++
			continue
		}

		// Step 4: positive quantity.
		qty, ok := rec.Int(schema.ColQuantity)
		if !ok || qty <= 0 {
			stats.BadQuantity++
			continue
		}

		// Step 5: timestamp normalization.
		ts, ok := parseDate(rec[schema.ColTransactionDate])
		if !ok {
			stats.BadDate++
			continue
		}

		out.Append(enrich(rec, total, qty, ts))
	}

	stats.Output = out.Len()
	log.Printf(
		"transform: in=%d out=%d duplicates=%d missing=%d bad_amount=%d bad_quantity=%d bad_date=%d",
		stats.Input, stats.Output, stats.Duplicates, stats.MissingValues,
		stats.BadAmount, stats.BadQuantity, stats.BadDate,
	)
	return out, stats, nil
}

// enrich builds the output row: normalized copies of the input cells plus the
// derived columns. The input record is left untouched.
func enrich(rec records.Record, total float64, qty int64, ts time.Time) records.Record {
	out := make(records.Record, len(rec)+6)
	for k, v := range rec {
		out[k] = v
	}

	out[schema.ColQuantity] = qty
	out[schema.ColTotalAmount] = total
	out[schema.ColTransactionDate] = ts
	if v, ok := rec.Float(schema.ColUnitPrice); ok {
		out[schema.ColUnitPrice] = v
	}
	if v, ok := rec.Int(schema.ColDiscountPercent); ok {
		out[schema.ColDiscountPercent] = v
	}
	if v, ok := rec.Float(schema.ColTaxRate); ok {
		out[schema.ColTaxRate] = v
	}

	wd := ts.Weekday()
	out[schema.ColYear] = int64(ts.Year())
	out[schema.ColMonth] = int64(ts.Month())
	out[schema.ColDayOfWeek] = wd.String()
	out[schema.ColIsWeekend] = wd == time.Saturday || wd == time.Sunday
	out[schema.ColCustomerSegment] = schema.Segment(total)
	out[schema.ColEstimatedProfit] = math.Round(total*0.3*100) / 100
	return out
}

// parseDate accepts a wire-format date string or an already-normalized
// time.Time (so a second pass over clean data is a no-op).
func parseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(schema.Layout, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// outputColumns appends the derived columns to the input order, skipping any
// already present so that re-running the transformer keeps a stable shape.
func outputColumns(in []string) []string {
	out := append([]string{}, in...)
	for _, col := range []string{
		schema.ColYear,
		schema.ColMonth,
		schema.ColDayOfWeek,
		schema.ColIsWeekend,
		schema.ColCustomerSegment,
		schema.ColEstimatedProfit,
	} {
		present := false
		for _, c := range out {
			if c == col {
				present = true
				break
			}
		}
		if !present {
			out = append(out, col)
		}
	}
	return out
}
