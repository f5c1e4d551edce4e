package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
)

// PostgresMatchRepository implements repositories.MatchRepository
type PostgresMatchRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(config *RepositoryConfig) repositories.MatchRepository {
	return &PostgresMatchRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const matchColumns = `id, user1_id, user2_id, project_id, status, created_at`

// Create inserts the match or resolves to the existing one for the pair and scope.
// A concurrent insert of the same pair blocks on the unique index until the other
// transaction finishes, then falls through to the read-back.
func (r *PostgresMatchRepository) Create(ctx context.Context, match *models.Match) (bool, error) {
	match.User1ID, match.User2ID = models.NormalizePair(match.User1ID, match.User2ID)
	if match.Status == "" {
		match.Status = models.MatchStatusActive
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user1_id, user2_id, project_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user1_id, user2_id, scope) DO NOTHING
		RETURNING id, created_at
	`, r.tables.Matches)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		match.User1ID,
		match.User2ID,
		match.ProjectID,
		string(match.Status),
		match.CreatedAt,
	).Scan(&match.ID, &match.CreatedAt)

	if err == nil {
		return true, nil
	}
	if !IsPgNoRowsError(err) {
		if IsPgForeignKeyError(err) {
			return false, &domain.ValidationError{Message: "both users and the project must exist"}
		}
		return false, wrapErr("create match", err)
	}

	existing, err := r.GetByPair(ctx, match.User1ID, match.User2ID, match.ProjectID)
	if err != nil {
		return false, err
	}
	*match = *existing
	return false, nil
}

// GetByID retrieves a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, matchColumns, r.tables.Matches)

	executor := GetExecutor(ctx, r.pool)
	match, err := scanMatch(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapErr("get match", err)
	}
	return match, nil
}

// GetByPair retrieves a match by participants in either order
func (r *PostgresMatchRepository) GetByPair(ctx context.Context, userA, userB string, projectID *string) (*models.Match, error) {
	u1, u2 := models.NormalizePair(userA, userB)
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user1_id = $1 AND user2_id = $2 AND scope = $3
	`, matchColumns, r.tables.Matches)

	executor := GetExecutor(ctx, r.pool)
	match, err := scanMatch(executor.QueryRow(ctx, query, u1, u2, models.ScopeKey(projectID)))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("match between %s and %s: %w", u1, u2, domain.ErrNotFound)
		}
		return nil, wrapErr("get match by pair", err)
	}
	return match, nil
}

// ListSummaries builds the match list read model in one query
func (r *PostgresMatchRepository) ListSummaries(ctx context.Context, userID string) ([]models.MatchSummary, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.user1_id, m.user2_id, m.project_id, m.status, m.created_at,
			p.id, p.display_name, p.headline, p.avatar_url,
			pr.id, pr.title, pr.owner_id,
			r.id,
			lm.content, lm.sender_id, lm.created_at,
			COALESCE(uc.unread, 0)
		FROM %[1]s m
		JOIN %[2]s p ON p.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
		LEFT JOIN %[3]s pr ON pr.id = m.project_id
		LEFT JOIN %[4]s r ON r.match_id = m.id
		LEFT JOIN LATERAL (
			SELECT content, sender_id, created_at
			FROM %[5]s
			WHERE room_id = r.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread
			FROM %[5]s
			WHERE room_id = r.id AND sender_id <> $1 AND read_at IS NULL
		) uc ON TRUE
		WHERE (m.user1_id = $1 OR m.user2_id = $1) AND m.status <> 'archived'
		ORDER BY m.created_at DESC
	`, r.tables.Matches, r.tables.Profiles, r.tables.Projects, r.tables.ChatRooms, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list matches", err)
	}
	defer rows.Close()

	summaries := []models.MatchSummary{}
	for rows.Next() {
		var (
			s                                models.MatchSummary
			status                           string
			projectID, projectTitle, ownerID *string
			roomID                           *string
			lastContent, lastSender          *string
			lastAt                           *time.Time
			unread                           int64
		)
		err := rows.Scan(
			&s.Match.ID, &s.Match.User1ID, &s.Match.User2ID, &s.Match.ProjectID, &status, &s.Match.CreatedAt,
			&s.Counterpart.ID, &s.Counterpart.DisplayName, &s.Counterpart.Headline, &s.Counterpart.AvatarURL,
			&projectID, &projectTitle, &ownerID,
			&roomID,
			&lastContent, &lastSender, &lastAt,
			&unread,
		)
		if err != nil {
			return nil, fmt.Errorf("scan match summary: %w", err)
		}
		s.Match.Status = models.MatchStatus(status)
		if projectID != nil {
			s.Project = &models.ProjectSummary{ID: *projectID, Title: deref(projectTitle), OwnerID: deref(ownerID)}
		}
		s.RoomID = roomID
		if lastContent != nil && lastAt != nil {
			s.LastMessage = &models.MessagePreview{Content: *lastContent, SenderID: deref(lastSender), CreatedAt: *lastAt}
		}
		s.UnreadCount = int(unread)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate matches", err)
	}

	return summaries, nil
}

// ListWithoutRoom finds matches whose room creation never completed
func (r *PostgresMatchRepository) ListWithoutRoom(ctx context.Context, limit int) ([]models.Match, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.user1_id, m.user2_id, m.project_id, m.status, m.created_at
		FROM %s m
		LEFT JOIN %s r ON r.match_id = m.id
		WHERE r.id IS NULL
		ORDER BY m.created_at ASC
		LIMIT $1
	`, r.tables.Matches, r.tables.ChatRooms)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, limit)
	if err != nil {
		return nil, wrapErr("list matches without room", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate matches", err)
	}
	return matches, nil
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m      models.Match
		status string
	)
	if err := row.Scan(&m.ID, &m.User1ID, &m.User2ID, &m.ProjectID, &status, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = models.MatchStatus(status)
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
