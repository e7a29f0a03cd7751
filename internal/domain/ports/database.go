package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx. Repository methods take one so
// callers choose whether a statement joins a transaction; nil means the pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

// TransactionManager runs a callback inside a transaction, committing when it
// returns nil and rolling back otherwise.
type TransactionManager interface {
	// WithTransaction is used where an event and its fan-out jobs must land together
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error

	// WithReadOnlyTransaction gives the delivery-log reads a single snapshot
	WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// DBPort is the database handle passed to repository constructors
type DBPort interface {
	GetDB() *pgxpool.Pool
	TransactionManager
}
