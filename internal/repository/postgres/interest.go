package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
)

// PostgresInterestRepository implements repositories.InterestRepository
type PostgresInterestRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewInterestRepository creates a new interest repository
func NewInterestRepository(config *RepositoryConfig) repositories.InterestRepository {
	return &PostgresInterestRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const interestColumns = `id, actor_id, target_id, project_id, action, created_at, updated_at`

// Upsert inserts the interest. The conflict target is the (actor, target, scope) key.
func (r *PostgresInterestRepository) Upsert(ctx context.Context, interest *models.Interest, replace bool) error {
	onConflict := `DO NOTHING`
	if replace {
		onConflict = `DO UPDATE SET action = EXCLUDED.action, updated_at = EXCLUDED.updated_at`
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (actor_id, target_id, project_id, action, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (actor_id, target_id, scope) %s
		RETURNING id, created_at, updated_at
	`, r.tables.Interests, onConflict)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		interest.ActorID,
		interest.TargetID,
		interest.ProjectID,
		string(interest.Action),
		interest.CreatedAt,
		interest.UpdatedAt,
	).Scan(&interest.ID, &interest.CreatedAt, &interest.UpdatedAt)

	if err == nil {
		return nil
	}

	switch {
	case IsPgNoRowsError(err):
		// DO NOTHING hit an existing row
		existing, getErr := r.Get(ctx, interest.ActorID, interest.TargetID, interest.ProjectID)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			// The conflicting row was deleted before the read-back.
			return &domain.UnavailableError{Op: "record interest", Cause: errors.New("conflicting interest vanished")}
		}
		*interest = *existing
		return &domain.ConflictError{
			Message:      fmt.Sprintf("interest in %s already recorded", interest.TargetID),
			ResourceType: "interest",
			ResourceID:   existing.ID,
		}
	case IsPgForeignKeyError(err):
		return &domain.ValidationError{Message: "actor, target and project must exist"}
	case IsPgCheckViolation(err):
		return &domain.ValidationError{Message: "invalid interest"}
	}
	return wrapErr("record interest", err)
}

// Get returns the actor's interest in target for the scope, or nil
func (r *PostgresInterestRepository) Get(ctx context.Context, actorID, targetID string, projectID *string) (*models.Interest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE actor_id = $1 AND target_id = $2 AND scope = $3
	`, interestColumns, r.tables.Interests)

	executor := GetExecutor(ctx, r.pool)
	interest, err := scanInterest(executor.QueryRow(ctx, query, actorID, targetID, models.ScopeKey(projectID)))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, wrapErr("get interest", err)
	}
	return interest, nil
}

// FindReciprocal looks up target -> actor in the same scope
func (r *PostgresInterestRepository) FindReciprocal(ctx context.Context, actorID, targetID string, projectID *string, actions []models.InterestAction) (*models.Interest, error) {
	if len(actions) == 0 {
		return nil, nil
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE actor_id = $1 AND target_id = $2 AND scope = $3 AND action = ANY($4)
	`, interestColumns, r.tables.Interests)

	executor := GetExecutor(ctx, r.pool)
	interest, err := scanInterest(executor.QueryRow(ctx, query, targetID, actorID, models.ScopeKey(projectID), names))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, wrapErr("find reciprocal interest", err)
	}
	return interest, nil
}

// ListUnmatchedMutual joins each positive interest to its positive reverse and keeps the
// pairs with no match in that scope.
func (r *PostgresInterestRepository) ListUnmatchedMutual(ctx context.Context, userID *string, sameActionOnly bool, limit int) ([]models.MutualInterest, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT a.id, a.actor_id, a.target_id, a.project_id, a.action, a.created_at, a.updated_at,
			b.id, b.actor_id, b.target_id, b.project_id, b.action, b.created_at, b.updated_at
		FROM %[1]s a
		JOIN %[1]s b ON b.actor_id = a.target_id AND b.target_id = a.actor_id AND b.scope = a.scope
		LEFT JOIN %[2]s m ON m.user1_id = LEAST(a.actor_id, a.target_id)
			AND m.user2_id = GREATEST(a.actor_id, a.target_id)
			AND m.scope = a.scope
		WHERE a.action IN ('like', 'superlike')
			AND b.action IN ('like', 'superlike')
			AND m.id IS NULL
			AND (NOT $3 OR a.action = b.action)
			AND (($1::uuid IS NULL AND a.actor_id < a.target_id) OR a.actor_id = $1::uuid)
		ORDER BY GREATEST(a.updated_at, b.updated_at) ASC
		LIMIT $2
	`, r.tables.Interests, r.tables.Matches)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, limit, sameActionOnly)
	if err != nil {
		return nil, wrapErr("list unmatched mutual interests", err)
	}
	defer rows.Close()

	pending := []models.MutualInterest{}
	for rows.Next() {
		var (
			m                   models.MutualInterest
			outAction, inAction string
		)
		err := rows.Scan(
			&m.Outgoing.ID, &m.Outgoing.ActorID, &m.Outgoing.TargetID, &m.Outgoing.ProjectID,
			&outAction, &m.Outgoing.CreatedAt, &m.Outgoing.UpdatedAt,
			&m.Incoming.ID, &m.Incoming.ActorID, &m.Incoming.TargetID, &m.Incoming.ProjectID,
			&inAction, &m.Incoming.CreatedAt, &m.Incoming.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mutual interest: %w", err)
		}
		m.Outgoing.Action = models.InterestAction(outAction)
		m.Incoming.Action = models.InterestAction(inAction)
		pending = append(pending, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate mutual interests", err)
	}
	return pending, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterest(row rowScanner) (*models.Interest, error) {
	var (
		interest models.Interest
		action   string
	)
	err := row.Scan(
		&interest.ID,
		&interest.ActorID,
		&interest.TargetID,
		&interest.ProjectID,
		&action,
		&interest.CreatedAt,
		&interest.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	interest.Action = models.InterestAction(action)
	return &interest, nil
}
