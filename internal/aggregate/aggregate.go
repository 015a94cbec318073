// Package aggregate reduces an enriched transaction set to one summary row
// per category present in the input. Categories with no rows produce no
// output row.
package aggregate

import (
	"log"
	"math"
	"sort"

	"txetl/internal/etlerr"
	"txetl/internal/records"
	"txetl/internal/schema"
)

// Summarize groups in by category and computes per-group row count, revenue
// (2dp round applied to the final sum, not per row), mean order value (2dp),
// and quantity sum. Output rows are emitted in sorted category order for
// stable logs; callers must not rely on any order.
func Summarize(in *records.Table) (*records.Table, error) {
	for _, col := range []string{schema.ColCategory, schema.ColTotalAmount, schema.ColQuantity} {
		if !in.HasColumn(col) {
			return nil, etlerr.Wrap(etlerr.ErrSchema, "required column %q absent", col)
		}
	}

	type acc struct {
		count    int64
		revenue  float64
		quantity int64
	}
	groups := make(map[string]*acc)

	for _, rec := range in.Rows {
		cat := rec.String(schema.ColCategory)
		total, _ := rec.Float(schema.ColTotalAmount)
		qty, _ := rec.Int(schema.ColQuantity)

		g := groups[cat]
		if g == nil {
			g = &acc{}
			groups[cat] = g
		}
		g.count++
		g.revenue += total
		g.quantity += qty
	}

	cats := make([]string, 0, len(groups))
	for c := range groups {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	out := records.NewTable(
		schema.ColCategory,
		schema.ColTotalTransactions,
		schema.ColTotalRevenue,
		schema.ColAvgOrderValue,
		schema.ColTotalQuantity,
	)
	for _, c := range cats {
		g := groups[c]
		out.Append(records.Record{
			schema.ColCategory:          c,
			schema.ColTotalTransactions: g.count,
			schema.ColTotalRevenue:      round2(g.revenue),
			schema.ColAvgOrderValue:     round2(g.revenue / float64(g.count)),
			schema.ColTotalQuantity:     g.quantity,
		})
	}

	log.Printf("aggregate: rows=%d categories=%d", in.Len(), out.Len())
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
