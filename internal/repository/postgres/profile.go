package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
)

// PostgresProfileRepository implements repositories.ProfileRepository
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(config *RepositoryConfig) repositories.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const profileColumns = `id, display_name, headline, bio, skills, avatar_url, created_at, updated_at`

// Upsert creates or updates a profile
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, display_name, headline, bio, skills, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			headline = EXCLUDED.headline,
			bio = EXCLUDED.bio,
			skills = EXCLUDED.skills,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`, r.tables.Profiles)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		profile.ID,
		profile.DisplayName,
		profile.Headline,
		profile.Bio,
		profile.Skills,
		profile.AvatarURL,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return wrapErr("upsert profile", err)
	}
	return nil
}

// GetByID retrieves a profile by user ID
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, profileColumns, r.tables.Profiles)

	executor := GetExecutor(ctx, r.pool)
	profile, err := scanProfile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapErr("get profile", err)
	}
	return profile, nil
}

// ListUnswiped returns the actor's deck for a scope, most recently updated first
func (r *PostgresProfileRepository) ListUnswiped(ctx context.Context, actorID string, projectID *string, limit int) ([]models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s p
		WHERE p.id <> $1
			AND NOT EXISTS (
				SELECT 1 FROM %s i
				WHERE i.actor_id = $1 AND i.target_id = p.id AND i.scope = $2
			)
		ORDER BY p.updated_at DESC
		LIMIT $3
	`, profileColumns, r.tables.Profiles, r.tables.Interests)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, actorID, models.ScopeKey(projectID), limit)
	if err != nil {
		return nil, wrapErr("list profile deck", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate profiles", err)
	}
	return profiles, nil
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.DisplayName, &p.Headline, &p.Bio, &p.Skills, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
