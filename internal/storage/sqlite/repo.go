// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql with the CGO-free modernc driver. SQLite has no COPY
// equivalent, so batches run through a prepared INSERT inside the load
// transaction; a single-writer connection limit serializes concurrent loads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "modernc.org/sqlite"

	"txetl/internal/etlerr"
	"txetl/internal/schema"
	"txetl/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, dsn string) (storage.Repository, error) {
		return NewRepository(ctx, dsn)
	})
}

var typeMap = schema.TypeMap{
	SQLType: map[schema.Kind]string{
		schema.KindText:      "TEXT",
		schema.KindInteger:   "INTEGER",
		schema.KindReal:      "REAL",
		schema.KindTimestamp: "TEXT",
		schema.KindBool:      "INTEGER",
	},
	QuoteIdent: quoteIdent,
}

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens the database file (created on demand) and fails fast on
// an unusable DSN.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, etlerr.Wrap(etlerr.ErrInvalidArgument, "sqlite: empty DSN")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrConnectionFailure, "sqlite: open: %v", err)
	}

	// SQLite allows one writer at a time; funneling all work through a single
	// connection lets two concurrent loads queue instead of failing with BUSY.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, etlerr.Wrap(etlerr.ErrConnectionFailure, "sqlite: ping: %v", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database handle.
func (r *Repository) Close() { r.db.Close() }

// EnsureTable creates the target table if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, def schema.TableDef) error {
	ddl, err := schema.BuildCreateTableSQL(def, typeMap)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return mapError(fmt.Errorf("sqlite: create table %s: %w", def.Name, err))
	}
	return nil
}

// HasRows reports whether table holds at least one row.
func (r *Repository) HasRows(ctx context.Context, table string) (bool, error) {
	var has bool
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s LIMIT 1)", quoteIdent(table))
	if err := r.db.QueryRowContext(ctx, q).Scan(&has); err != nil {
		return false, mapError(fmt.Errorf("sqlite: has rows %s: %w", table, err))
	}
	return has, nil
}

// Begin opens a load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(fmt.Errorf("sqlite: begin: %w", err))
	}
	return &loadTx{tx: tx}, nil
}

type loadTx struct {
	tx *sql.Tx
}

func (t *loadTx) Truncate(ctx context.Context, table string) error {
	// SQLite has no TRUNCATE; an unqualified DELETE takes the fast path.
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return mapError(fmt.Errorf("sqlite: delete from %s: %w", table, err))
	}
	return nil
}

func (t *loadTx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), placeholders,
	)

	stmt, err := t.tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, mapError(fmt.Errorf("sqlite: prepare insert: %w", err))
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("sqlite: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, normalizeRow(row)...); err != nil {
			return inserted, mapError(fmt.Errorf("sqlite: insert into %s: %w", table, err))
		}
		inserted++
	}
	return inserted, nil
}

func (t *loadTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError(fmt.Errorf("sqlite: commit: %w", err))
	}
	return nil
}

func (t *loadTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return mapError(fmt.Errorf("sqlite: rollback: %w", err))
	}
	return nil
}

// normalizeRow renders timestamps in the shared wire layout so stored values
// match the text encodings.
func normalizeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if ts, ok := v.(time.Time); ok {
			out[i] = ts.Format(schema.Layout)
			continue
		}
		out[i] = v
	}
	return out
}

// mapError classifies driver errors: primary result code 19 is
// SQLITE_CONSTRAINT (extended codes keep it in the low byte).
func mapError(err error) error {
	var se *sqlite3.Error
	if errors.As(err, &se) && se.Code()&0xff == 19 {
		return fmt.Errorf("%v: %w", err, etlerr.ErrConstraintViolation)
	}
	return err
}

// quoteIdent quotes a single identifier segment for SQLite.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
