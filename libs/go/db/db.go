package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behavior the store runs on. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so every query works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// New creates a Queries instance bound to the given connection or pool
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the prepared store operations for the nexfield schema
type Queries struct {
	db DBTX
}

// WithTx returns a Queries instance that runs against the transaction
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// GetDBTX returns the underlying database transaction or connection interface
// This is useful for starting transactions or accessing the raw database connection
func (q *Queries) GetDBTX() DBTX {
	return q.db
}
