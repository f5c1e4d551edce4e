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

// PostgresChatRoomRepository implements repositories.ChatRoomRepository
type PostgresChatRoomRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatRoomRepository creates a new chat room repository
func NewChatRoomRepository(config *RepositoryConfig) repositories.ChatRoomRepository {
	return &PostgresChatRoomRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a room for the match, or returns the one it already has
func (r *PostgresChatRoomRepository) Create(ctx context.Context, room *models.ChatRoom) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (match_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (match_id) DO NOTHING
		RETURNING id, created_at
	`, r.tables.ChatRooms)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, room.MatchID, room.CreatedAt).Scan(&room.ID, &room.CreatedAt)
	if err == nil {
		return true, nil
	}
	if IsPgForeignKeyError(err) {
		return false, fmt.Errorf("match %s: %w", room.MatchID, domain.ErrNotFound)
	}
	if !IsPgNoRowsError(err) {
		return false, wrapErr("create chat room", err)
	}

	existing, err := r.GetByMatchID(ctx, room.MatchID)
	if err != nil {
		return false, err
	}
	*room = *existing
	return false, nil
}

// GetByID retrieves a chat room by ID
func (r *PostgresChatRoomRepository) GetByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	query := fmt.Sprintf(`SELECT id, match_id, created_at FROM %s WHERE id = $1`, r.tables.ChatRooms)

	var room models.ChatRoom
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&room.ID, &room.MatchID, &room.CreatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat room %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapErr("get chat room", err)
	}
	return &room, nil
}

// GetByMatchID retrieves the room of a match
func (r *PostgresChatRoomRepository) GetByMatchID(ctx context.Context, matchID string) (*models.ChatRoom, error) {
	query := fmt.Sprintf(`SELECT id, match_id, created_at FROM %s WHERE match_id = $1`, r.tables.ChatRooms)

	var room models.ChatRoom
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, matchID).Scan(&room.ID, &room.MatchID, &room.CreatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat room for match %s: %w", matchID, domain.ErrNotFound)
		}
		return nil, wrapErr("get chat room by match", err)
	}
	return &room, nil
}

// PostgresChatMessageRepository implements repositories.ChatMessageRepository
type PostgresChatMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatMessageRepository creates a new chat message repository
func NewChatMessageRepository(config *RepositoryConfig) repositories.ChatMessageRepository {
	return &PostgresChatMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a message to the room
func (r *PostgresChatMessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (room_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, msg.RoomID, msg.SenderID, msg.Content, msg.CreatedAt).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chat room %s: %w", msg.RoomID, domain.ErrNotFound)
		}
		if IsPgCheckViolation(err) {
			return &domain.ValidationError{Message: "message content is required"}
		}
		return wrapErr("send message", err)
	}
	return nil
}

// List takes the newest page.Limit messages before page.Before and returns them oldest first
func (r *PostgresChatMessageRepository) List(ctx context.Context, roomID string, page models.MessagePage) ([]models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, room_id, sender_id, content, created_at, read_at
		FROM (
			SELECT id, room_id, sender_id, content, created_at, read_at
			FROM %s
			WHERE room_id = $1 AND (
				$2::timestamptz IS NULL
				OR created_at < $2
				OR ($4::uuid IS NOT NULL AND created_at = $2 AND id < $4::uuid)
			)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) newest
		ORDER BY created_at ASC, id ASC
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, roomID, page.Before, page.Limit, page.BeforeID)
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.ReadAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate messages", err)
	}
	return messages, nil
}

// MarkRead stamps the counterpart's unread messages
func (r *PostgresChatMessageRepository) MarkRead(ctx context.Context, roomID, readerID string, at time.Time) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET read_at = $3
		WHERE room_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, roomID, readerID, at)
	if err != nil {
		return 0, wrapErr("mark messages read", err)
	}
	return int(tag.RowsAffected()), nil
}
