// Package postgres implements a Postgres storage.Repository using pgx v5.
// Bulk loads go through the COPY protocol; a replace load truncates and
// copies inside one transaction, which Postgres applies atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"txetl/internal/etlerr"
	"txetl/internal/schema"
	"txetl/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, dsn string) (storage.Repository, error) {
		return NewRepository(ctx, dsn)
	})
}

// typeMap adapts the schema kinds to Postgres types.
var typeMap = schema.TypeMap{
	SQLType: map[schema.Kind]string{
		schema.KindText:      "TEXT",
		schema.KindInteger:   "BIGINT",
		schema.KindReal:      "DOUBLE PRECISION",
		schema.KindTimestamp: "TIMESTAMP",
		schema.KindBool:      "BOOLEAN",
	},
	QuoteIdent: pgIdent,
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects a pool and verifies the server is reachable.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrConnectionFailure, "pgxpool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, etlerr.Wrap(etlerr.ErrConnectionFailure, "ping: %v", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// EnsureTable creates the target table if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, def schema.TableDef) error {
	sql, err := schema.BuildCreateTableSQL(def, typeMap)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return mapError(fmt.Errorf("create table %s: %w", def.Name, err))
	}
	return nil
}

// HasRows reports whether table holds at least one row.
func (r *Repository) HasRows(ctx context.Context, table string) (bool, error) {
	var has bool
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s LIMIT 1)", pgIdent(table))
	if err := r.pool.QueryRow(ctx, q).Scan(&has); err != nil {
		return false, mapError(fmt.Errorf("has rows %s: %w", table, err))
	}
	return has, nil
}

// Begin opens a load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapError(fmt.Errorf("begin: %w", err))
	}
	return &loadTx{tx: tx}, nil
}

type loadTx struct {
	tx pgx.Tx
}

func (t *loadTx) Truncate(ctx context.Context, table string) error {
	// TRUNCATE is transactional in Postgres; old rows stay visible to other
	// sessions until commit.
	if _, err := t.tx.Exec(ctx, "TRUNCATE TABLE "+pgIdent(table)); err != nil {
		return mapError(fmt.Errorf("truncate %s: %w", table, err))
	}
	return nil
}

func (t *loadTx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, mapError(fmt.Errorf("copy into %s: %w", table, err))
	}
	return n, nil
}

func (t *loadTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (t *loadTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return mapError(fmt.Errorf("rollback: %w", err))
	}
	return nil
}

// mapError classifies pgx errors into the shared taxonomy. SQLSTATE class 23
// covers integrity violations; everything that never reached the server is a
// connection failure.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "23") {
			return fmt.Errorf("%v: %w", err, etlerr.ErrConstraintViolation)
		}
		return err
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%v: %w", err, etlerr.ErrConnectionFailure)
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
