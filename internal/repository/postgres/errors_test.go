package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"devmatch/internal/domain"
)

func TestIsPgTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "connection failure class", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: true},
		{name: "wrapped transient", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "no rows", err: pgx.ErrNoRows, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPgTransientError(tt.err))
		})
	}
}

func TestWrapErr(t *testing.T) {
	err := wrapErr("create match", &pgconn.PgError{Code: "40P01"})
	assert.True(t, domain.IsTransient(err))
	var unavailable *domain.UnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "create match", unavailable.Op)

	err = wrapErr("create match", &pgconn.PgError{Code: "23503"})
	assert.False(t, domain.IsTransient(err))
	assert.True(t, IsPgForeignKeyError(err))
	assert.Contains(t, err.Error(), "create match")
}

func TestPgConstraintHelpers(t *testing.T) {
	assert.True(t, IsPgDuplicateError(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsPgCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, IsPgNoRowsError(fmt.Errorf("x: %w", pgx.ErrNoRows)))
	assert.False(t, IsPgDuplicateError(errors.New("23505")))
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("test_")

	assert.Equal(t, "test_profiles", tables.Profiles)
	assert.Equal(t, "test_chat_messages", tables.ChatMessages)
	assert.Equal(t, []string{
		"test_profiles", "test_projects", "test_interests",
		"test_matches", "test_chat_rooms", "test_chat_messages",
	}, tables.All())
}
