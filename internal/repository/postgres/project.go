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

// PostgresProjectRepository implements repositories.ProjectRepository
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const projectColumns = `id, owner_id, title, description, skills, created_at, updated_at`

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, title, description, skills, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.OwnerID,
		project.Title,
		project.Description,
		project.Skills,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.ValidationError{Message: "create your profile before adding projects"}
		}
		return wrapErr("create project", err)
	}
	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, projectColumns, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	project, err := scanProject(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapErr("get project", err)
	}
	return project, nil
}

// ListByOwner retrieves a user's projects, newest first
func (r *PostgresProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, projectColumns, r.tables.Projects)

	return r.list(ctx, "list projects", query, ownerID)
}

// ListUnswiped returns other owners' projects the actor has not swiped on
func (r *PostgresProjectRepository) ListUnswiped(ctx context.Context, actorID string, limit int) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT pr.id, pr.owner_id, pr.title, pr.description, pr.skills, pr.created_at, pr.updated_at
		FROM %s pr
		WHERE pr.owner_id <> $1
			AND NOT EXISTS (
				SELECT 1 FROM %s i
				WHERE i.actor_id = $1 AND i.target_id = pr.owner_id AND i.scope = pr.id
			)
		ORDER BY pr.created_at DESC
		LIMIT $2
	`, r.tables.Projects, r.tables.Interests)

	return r.list(ctx, "list project deck", query, actorID, limit)
}

func (r *PostgresProjectRepository) list(ctx context.Context, op, query string, args ...any) ([]models.Project, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return projects, nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Skills, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
