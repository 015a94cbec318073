// Package mysql implements a MySQL-backed storage.Repository over
// database/sql. Batches are written as multi-row INSERT statements inside
// the load transaction. The replace policy issues DELETE rather than
// TRUNCATE because TRUNCATE is DDL in MySQL and would implicitly commit,
// breaking load atomicity.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"txetl/internal/etlerr"
	"txetl/internal/schema"
	"txetl/internal/storage"
)

func init() {
	storage.Register("mysql", func(ctx context.Context, dsn string) (storage.Repository, error) {
		return NewRepository(ctx, dsn)
	})
}

var typeMap = schema.TypeMap{
	SQLType: map[schema.Kind]string{
		schema.KindText:      "TEXT",
		schema.KindInteger:   "BIGINT",
		schema.KindReal:      "DOUBLE",
		schema.KindTimestamp: "DATETIME",
		schema.KindBool:      "BOOLEAN",
	},
	// A unique text key needs a bounded type; TEXT cannot back an index.
	KeyText:    "VARCHAR(64)",
	QuoteIdent: quoteIdent,
}

// Repository is a MySQL-backed storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a connection pool and verifies the server is reachable.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrConnectionFailure, "mysql: open: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, etlerr.Wrap(etlerr.ErrConnectionFailure, "mysql: ping: %v", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the pool.
func (r *Repository) Close() { r.db.Close() }

// EnsureTable creates the target table if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, def schema.TableDef) error {
	ddl, err := schema.BuildCreateTableSQL(def, typeMap)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return mapError(fmt.Errorf("mysql: create table %s: %w", def.Name, err))
	}
	return nil
}

// HasRows reports whether table holds at least one row.
func (r *Repository) HasRows(ctx context.Context, table string) (bool, error) {
	var has bool
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s LIMIT 1)", quoteIdent(table))
	if err := r.db.QueryRowContext(ctx, q).Scan(&has); err != nil {
		return false, mapError(fmt.Errorf("mysql: has rows %s: %w", table, err))
	}
	return has, nil
}

// Begin opens a load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(fmt.Errorf("mysql: begin: %w", err))
	}
	return &loadTx{tx: tx}, nil
}

type loadTx struct {
	tx *sql.Tx
}

func (t *loadTx) Truncate(ctx context.Context, table string) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return mapError(fmt.Errorf("mysql: delete from %s: %w", table, err))
	}
	return nil
}

func (t *loadTx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: row length %d != columns length %d", len(row), len(columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}

	res, err := t.tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, mapError(fmt.Errorf("mysql: insert into %s: %w", table, err))
	}
	return res.RowsAffected()
}

func (t *loadTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError(fmt.Errorf("mysql: commit: %w", err))
	}
	return nil
}

func (t *loadTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return mapError(fmt.Errorf("mysql: rollback: %w", err))
	}
	return nil
}

// mapError classifies driver errors: 1062 is ER_DUP_ENTRY; a bad handshake or
// unreachable host surfaces before any MySQL error number exists.
func mapError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if me.Number == 1062 || me.Number == 1048 || me.Number == 1452 {
			return fmt.Errorf("%v: %w", err, etlerr.ErrConstraintViolation)
		}
		return err
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%v: %w", err, etlerr.ErrConnectionFailure)
	}
	return err
}

// quoteIdent quotes a single identifier segment for MySQL.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
