package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a unit of work atomically.
// Repository calls made with the ctx passed to fn join the transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

type txContextKey struct{}

// SetTx stores a transaction in the context
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetTx returns the transaction carried by ctx, or nil.
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}
