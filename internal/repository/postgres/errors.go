package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"devmatch/internal/domain"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = foreign_key_violation
		return pgErr.Code == "23503"
	}
	return false
}

// IsPgCheckViolation checks if error is a CHECK constraint violation (23514)
func IsPgCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return false
}

// IsPgTransientError reports failures that may succeed on retry: lost or refused
// connections, serialization failures, deadlocks and server shutdown.
func IsPgTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"53300", // too_many_connections
			"57P01", // admin_shutdown
			"57P03": // cannot_connect_now
			return true
		}
		// Class 08 - connection exception
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// wrapErr annotates err with op, converting transient failures to *domain.UnavailableError.
func wrapErr(op string, err error) error {
	if IsPgTransientError(err) {
		return &domain.UnavailableError{Op: op, Cause: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
