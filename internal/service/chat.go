package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"devmatch/internal/config"
	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/domain/services"
	"devmatch/internal/events"
	"devmatch/internal/metrics"
)

// chatService implements services.ChatService
type chatService struct {
	roomRepo    repositories.ChatRoomRepository
	messageRepo repositories.ChatMessageRepository
	matchRepo   repositories.MatchRepository
	authorizer  services.ParticipantAuthorizer
	publisher   events.Publisher
	policy      config.MessagePolicy
	retry       *Retrier
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	roomRepo repositories.ChatRoomRepository,
	messageRepo repositories.ChatMessageRepository,
	matchRepo repositories.MatchRepository,
	authorizer services.ParticipantAuthorizer,
	publisher events.Publisher,
	policy config.MessagePolicy,
	retry *Retrier,
	m *metrics.Metrics,
	logger *slog.Logger,
) services.ChatService {
	return &chatService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		authorizer:  authorizer,
		publisher:   publisher,
		policy:      policy,
		retry:       retry,
		metrics:     m,
		logger:      logger,
	}
}

// GetRoom retrieves a room for one of the match's participants
func (s *chatService) GetRoom(ctx context.Context, roomID, userID string) (*models.ChatRoom, error) {
	if err := s.authorizer.CanAccessRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.roomRepo.GetByID(ctx, roomID)
}

// SendMessage appends a message and notifies the other participant
func (s *chatService) SendMessage(ctx context.Context, req *services.SendMessageRequest) (*models.ChatMessage, error) {
	content := strings.TrimSpace(req.Content)
	err := validation.Errors{
		"room_id": validation.Validate(req.RoomID, validation.Required, is.UUID),
		"content": validation.Validate(content, validation.Required, validation.By(s.maxRunes)),
	}.Filter()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	room, err := s.roomRepo.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	match, err := s.matchRepo.GetByID(ctx, room.MatchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(req.SenderID) {
		return nil, fmt.Errorf("access denied to chat room %s: %w", req.RoomID, domain.ErrForbidden)
	}
	if match.Status == models.MatchStatusArchived {
		return nil, &domain.ValidationError{Message: "match is archived"}
	}

	msg := &models.ChatMessage{
		RoomID:    room.ID,
		SenderID:  req.SenderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	// Not retried: a lost response would duplicate the message.
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.metrics.MessageSent()
	s.logger.Debug("message sent", "id", msg.ID, "room_id", msg.RoomID, "sender_id", msg.SenderID)

	if s.publisher != nil {
		evt := events.MessageSent{Message: *msg, RecipientID: match.Counterpart(req.SenderID)}
		if err := s.publisher.Publish(ctx, events.SubjectChatMessage, evt); err != nil {
			s.logger.Warn("publish event failed", "subject", events.SubjectChatMessage, "error", err)
		}
	}

	return msg, nil
}

// ListMessages returns a page of history, oldest first
func (s *chatService) ListMessages(ctx context.Context, req *services.ListMessagesRequest) ([]models.ChatMessage, error) {
	if req.BeforeID != nil && req.Before == nil {
		return nil, &domain.ValidationError{Message: "before_id requires before"}
	}
	if err := s.authorizer.CanAccessRoom(ctx, req.UserID, req.RoomID); err != nil {
		return nil, err
	}

	limit := req.Limit
	switch {
	case limit <= 0:
		limit = s.policy.DefaultPageSize
	case limit > s.policy.MaxPageSize:
		limit = s.policy.MaxPageSize
	}

	return Retry(ctx, s.retry, "list messages", func(ctx context.Context) ([]models.ChatMessage, error) {
		return s.messageRepo.List(ctx, req.RoomID, models.MessagePage{Limit: limit, Before: req.Before, BeforeID: req.BeforeID})
	})
}

// MarkRead marks the counterpart's messages read. Safe to repeat.
func (s *chatService) MarkRead(ctx context.Context, roomID, readerID string) (int, error) {
	if err := s.authorizer.CanAccessRoom(ctx, readerID, roomID); err != nil {
		return 0, err
	}

	now := time.Now()
	n, err := Retry(ctx, s.retry, "mark read", func(ctx context.Context) (int, error) {
		return s.messageRepo.MarkRead(ctx, roomID, readerID, now)
	})
	if err != nil {
		return 0, err
	}

	if n > 0 && s.publisher != nil {
		evt := events.MessagesRead{RoomID: roomID, ReaderID: readerID, Count: n, ReadAt: now}
		if err := s.publisher.Publish(ctx, events.SubjectMessagesRead, evt); err != nil {
			s.logger.Warn("publish event failed", "subject", events.SubjectMessagesRead, "error", err)
		}
	}
	return n, nil
}

func (s *chatService) maxRunes(v any) error {
	if utf8.RuneCountInString(v.(string)) > s.policy.MaxLength {
		return fmt.Errorf("must be at most %d characters", s.policy.MaxLength)
	}
	return nil
}
