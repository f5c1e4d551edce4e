package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/domain/models"
)

// EnsureSchema creates tables and indexes if they don't exist. Safe to run repeatedly.
//
// The scope column maps a NULL project to the nil UUID so uniqueness of interests and
// matches holds for project-less swipes too.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	scopeExpr := fmt.Sprintf("COALESCE(project_id, '%s'::uuid)", models.GlobalScope)

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Profiles + ` (
			id UUID PRIMARY KEY,
			display_name TEXT NOT NULL,
			headline TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			skills TEXT[] NOT NULL DEFAULT '{}',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL REFERENCES ` + tables.Profiles + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			skills TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Interests + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			actor_id UUID NOT NULL REFERENCES ` + tables.Profiles + `(id) ON DELETE CASCADE,
			target_id UUID NOT NULL REFERENCES ` + tables.Profiles + `(id) ON DELETE CASCADE,
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			scope UUID GENERATED ALWAYS AS (` + scopeExpr + `) STORED,
			action TEXT NOT NULL CHECK (action IN ('like', 'superlike', 'skip')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (actor_id <> target_id),
			UNIQUE (actor_id, target_id, scope)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Matches + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user1_id UUID NOT NULL REFERENCES ` + tables.Profiles + `(id) ON DELETE CASCADE,
			user2_id UUID NOT NULL REFERENCES ` + tables.Profiles + `(id) ON DELETE CASCADE,
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			scope UUID GENERATED ALWAYS AS (` + scopeExpr + `) STORED,
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'pending', 'archived')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (user1_id < user2_id),
			UNIQUE (user1_id, user2_id, scope)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.ChatRooms + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			match_id UUID NOT NULL UNIQUE REFERENCES ` + tables.Matches + `(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.ChatMessages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			room_id UUID NOT NULL REFERENCES ` + tables.ChatRooms + `(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL,
			content TEXT NOT NULL CHECK (length(content) > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read_at TIMESTAMPTZ
		)`,
	}

	// Index names are global per schema, so they carry the table prefix too.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `interests_reciprocal ON ` + tables.Interests + `(target_id, actor_id, scope)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `projects_owner ON ` + tables.Projects + `(owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `matches_user1 ON ` + tables.Matches + `(user1_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `matches_user2 ON ` + tables.Matches + `(user2_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chat_messages_room ON ` + tables.ChatMessages + `(room_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chat_messages_unread ON ` + tables.ChatMessages + `(room_id, sender_id) WHERE read_at IS NULL`,
	}

	for _, stmt := range append(statements, indexes...) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// DropSchema drops every table for the prefix, children first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}

// ClearData truncates every table but keeps the schema.
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	_, err := pool.Exec(ctx, "TRUNCATE "+strings.Join(tables.All(), ", ")+" CASCADE")
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
