package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/domain/repositories"
)

// TransactionManager implements repositories.TransactionManager on a pgx pool
type TransactionManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(pool *pgxpool.Pool, logger *slog.Logger) repositories.TransactionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionManager{pool: pool, logger: logger}
}

// ExecTx runs fn in a transaction. An error from fn rolls back; otherwise it commits.
// Nested calls reuse the outer transaction.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if repositories.GetTx(ctx) != nil {
		return fn(ctx)
	}

	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}

	// Safe even if commit succeeds
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(repositories.SetTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}

	return nil
}
