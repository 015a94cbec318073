// Package storage contains the storage-agnostic loading contracts. Concrete
// backends (Postgres, SQLite, MySQL) implement Repository and register
// themselves with the factory; the loader in load.go drives any backend
// through the same batched, transactional path.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"txetl/internal/etlerr"
	"txetl/internal/schema"
)

// Policy decides what happens when the target table already holds data.
type Policy string

const (
	// PolicyFail aborts with AlreadyExists when the table is non-empty.
	PolicyFail Policy = "fail"
	// PolicyReplace atomically swaps the table contents for the new set.
	PolicyReplace Policy = "replace"
	// PolicyAppend adds rows, keeping existing contents.
	PolicyAppend Policy = "append"
)

// ParsePolicy maps a user-supplied policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFail, PolicyReplace, PolicyAppend:
		return Policy(s), nil
	}
	return "", etlerr.Wrap(etlerr.ErrInvalidArgument, "load policy %q", s)
}

// Repository is the minimal backend surface the loader needs. Implementations
// map their driver errors onto the etlerr classes.
type Repository interface {
	// EnsureTable creates the table for def if it does not exist.
	EnsureTable(ctx context.Context, def schema.TableDef) error

	// HasRows reports whether the table currently holds at least one row.
	HasRows(ctx context.Context, table string) (bool, error)

	// Begin opens a transaction covering one whole load.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the underlying connections.
	Close()
}

// Tx is one load transaction. All batches of a load run inside a single Tx so
// that replace semantics never expose a mix of old and new rows.
type Tx interface {
	// Truncate removes all existing rows from the table.
	Truncate(ctx context.Context, table string) error

	// CopyFrom bulk-inserts rows aligned to columns and returns the number of
	// rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// OpenFunc constructs a backend repository from a DSN.
type OpenFunc func(ctx context.Context, dsn string) (Repository, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]OpenFunc{}
)

// Register makes a backend available under kind. Backends call this from
// their init; importing a backend package is enough to enable it.
func Register(kind string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[kind]; dup {
		panic(fmt.Sprintf("storage: backend %q registered twice", kind))
	}
	backends[kind] = open
}

// Open constructs the backend registered under kind.
func Open(ctx context.Context, kind, dsn string) (Repository, error) {
	backendsMu.RLock()
	open, ok := backends[kind]
	backendsMu.RUnlock()
	if !ok {
		return nil, etlerr.Wrap(etlerr.ErrInvalidArgument, "unknown storage backend %q (have %v)", kind, Backends())
	}
	return open(ctx, dsn)
}

// Backends lists the registered backend kinds, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
