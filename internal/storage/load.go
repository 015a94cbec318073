package storage

import (
	"context"
	"log"
	"time"

	"txetl/internal/etlerr"
	"txetl/internal/records"
	"txetl/internal/schema"
)

// DefaultBatchSize bounds memory and statement size per flush.
const DefaultBatchSize = 10000

// Load persists tbl to the table described by def under the given policy.
// The whole load, including the truncate under PolicyReplace, runs in one
// transaction, so a batch failure never leaves the table mixing old and new
// rows. Returns the number of rows written.
//
// Values are taken from each record by column name in def order; a progress
// line with running totals and rows/sec is logged per flushed batch.
func Load(
	ctx context.Context,
	repo Repository,
	def schema.TableDef,
	tbl *records.Table,
	policy Policy,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := repo.EnsureTable(ctx, def); err != nil {
		return 0, err
	}

	if policy == PolicyFail {
		has, err := repo.HasRows(ctx, def.Name)
		if err != nil {
			return 0, err
		}
		if has {
			return 0, etlerr.Wrap(etlerr.ErrAlreadyExists, "table %s holds data", def.Name)
		}
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if policy == PolicyReplace {
		if err := tx.Truncate(ctx, def.Name); err != nil {
			return 0, err
		}
	}

	columns := def.ColumnNames()

	var (
		total     int64
		batches   int64
		start     = time.Now()
		lastFlush = start
		batch     = make([][]any, 0, batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := tx.CopyFrom(ctx, def.Name, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			return err
		}

		batches++
		now := time.Now()
		rps := float64(0)
		if d := now.Sub(lastFlush); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Printf("load: table=%s batch=%d inserted=%d total=%d rps=%.0f elapsed=%s",
			def.Name, batches, n, total, rps, now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		return nil
	}

	for _, rec := range tbl.Rows {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = rec[col]
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	if err := tx.Commit(ctx); err != nil {
		return total, err
	}
	committed = true

	log.Printf("load: table=%s policy=%s rows=%d elapsed=%s",
		def.Name, policy, total, time.Since(start).Truncate(time.Millisecond))
	return total, nil
}
