package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

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

// matchService implements services.MatchService
type matchService struct {
	interestRepo repositories.InterestRepository
	matchRepo    repositories.MatchRepository
	roomRepo     repositories.ChatRoomRepository
	txManager    repositories.TransactionManager
	authorizer   services.ParticipantAuthorizer
	publisher    events.Publisher
	reciprocity  config.ReciprocityPolicy
	retry        *Retrier
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewMatchService creates a new match service
func NewMatchService(
	interestRepo repositories.InterestRepository,
	matchRepo repositories.MatchRepository,
	roomRepo repositories.ChatRoomRepository,
	txManager repositories.TransactionManager,
	authorizer services.ParticipantAuthorizer,
	publisher events.Publisher,
	reciprocity config.ReciprocityPolicy,
	retry *Retrier,
	m *metrics.Metrics,
	logger *slog.Logger,
) services.MatchService {
	return &matchService{
		interestRepo: interestRepo,
		matchRepo:    matchRepo,
		roomRepo:     roomRepo,
		txManager:    txManager,
		authorizer:   authorizer,
		publisher:    publisher,
		reciprocity:  reciprocity,
		retry:        retry,
		metrics:      m,
		logger:       logger,
	}
}

// CreateMatch returns the existing match for the pair and scope if there is one
func (s *matchService) CreateMatch(ctx context.Context, userA, userB string, projectID *string) (*models.Match, bool, error) {
	if err := validatePair(userA, userB, projectID); err != nil {
		return nil, false, err
	}

	match := &models.Match{
		User1ID:   userA,
		User2ID:   userB,
		ProjectID: normalizeOptionalID(projectID),
		Status:    models.MatchStatusActive,
		CreatedAt: time.Now(),
	}
	created, err := Retry(ctx, s.retry, "create match", func(ctx context.Context) (bool, error) {
		return s.matchRepo.Create(ctx, match)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.metrics.MatchCreated()
		s.logger.Info("match created",
			"id", match.ID,
			"user1_id", match.User1ID,
			"user2_id", match.User2ID,
			"project_id", models.ScopeKey(match.ProjectID),
		)
		s.publish(ctx, events.SubjectMatchCreated, events.MatchCreated{
			MatchID:   match.ID,
			User1ID:   match.User1ID,
			User2ID:   match.User2ID,
			ProjectID: match.ProjectID,
			CreatedAt: match.CreatedAt,
		})
	}
	return match, created, nil
}

// CreateChatRoom returns the match's existing room if there is one
func (s *matchService) CreateChatRoom(ctx context.Context, matchID string) (*models.ChatRoom, bool, error) {
	return s.createRoom(ctx, matchID, "direct")
}

func (s *matchService) createRoom(ctx context.Context, matchID, path string) (*models.ChatRoom, bool, error) {
	if err := validation.Validate(matchID, validation.Required, is.UUID); err != nil {
		return nil, false, fmt.Errorf("%w: match_id: %v", domain.ErrValidation, err)
	}

	room := &models.ChatRoom{MatchID: matchID, CreatedAt: time.Now()}
	created, err := Retry(ctx, s.retry, "create chat room", func(ctx context.Context) (bool, error) {
		return s.roomRepo.Create(ctx, room)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.metrics.RoomCreated(path)
		s.logger.Info("chat room created", "id", room.ID, "match_id", matchID, "path", path)
	}
	return room, created, nil
}

// Provision creates the match and its room in one transaction.
// The transaction as a whole is retried; each step inside is idempotent.
func (s *matchService) Provision(ctx context.Context, userA, userB string, projectID *string) (*models.Match, *models.ChatRoom, bool, error) {
	if err := validatePair(userA, userB, projectID); err != nil {
		return nil, nil, false, err
	}

	var (
		match   *models.Match
		room    *models.ChatRoom
		created bool
	)
	err := s.retry.Do(ctx, "provision match", func(ctx context.Context) error {
		return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
			m := &models.Match{
				User1ID:   userA,
				User2ID:   userB,
				ProjectID: normalizeOptionalID(projectID),
				Status:    models.MatchStatusActive,
				CreatedAt: time.Now(),
			}
			c, err := s.matchRepo.Create(txCtx, m)
			if err != nil {
				return err
			}

			r := &models.ChatRoom{MatchID: m.ID, CreatedAt: time.Now()}
			if _, err := s.roomRepo.Create(txCtx, r); err != nil {
				return err
			}

			// An earlier attempt may have created the match before failing.
			match, room, created = m, r, created || c
			return nil
		})
	})
	if err != nil {
		return nil, nil, false, err
	}

	if !created {
		s.logger.Debug("match already exists", "id", match.ID)
		return match, room, false, nil
	}

	s.metrics.MatchCreated()
	s.metrics.RoomCreated("provision")
	s.logger.Info("match provisioned",
		"id", match.ID,
		"room_id", room.ID,
		"user1_id", match.User1ID,
		"user2_id", match.User2ID,
		"project_id", models.ScopeKey(match.ProjectID),
	)
	s.publish(ctx, events.SubjectMatchCreated, events.MatchCreated{
		MatchID:   match.ID,
		User1ID:   match.User1ID,
		User2ID:   match.User2ID,
		ProjectID: match.ProjectID,
		RoomID:    room.ID,
		CreatedAt: match.CreatedAt,
	})
	return match, room, true, nil
}

// EnsureChatRoom repairs a match whose room was never created
func (s *matchService) EnsureChatRoom(ctx context.Context, matchID, userID string) (*models.ChatRoom, bool, error) {
	if err := s.authorizer.CanAccessMatch(ctx, userID, matchID); err != nil {
		return nil, false, err
	}

	room, err := s.roomRepo.GetByMatchID(ctx, matchID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	return s.createRoom(ctx, matchID, "lazy")
}

// GetMatch retrieves a match for one of its participants
func (s *matchService) GetMatch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	if err := s.authorizer.CanAccessMatch(ctx, userID, matchID); err != nil {
		return nil, err
	}
	return s.matchRepo.GetByID(ctx, matchID)
}

// ListMatches returns the user's matches. Pending mutual interests are provisioned
// and matches missing a room get one here.
func (s *matchService) ListMatches(ctx context.Context, userID string) ([]models.MatchSummary, error) {
	if n, err := s.ReconcilePending(ctx, &userID, pendingPerList); err != nil {
		s.logger.Warn("pending match reconcile failed", "user_id", userID, "provisioned", n, "error", err)
	}

	summaries, err := Retry(ctx, s.retry, "list matches", func(ctx context.Context) ([]models.MatchSummary, error) {
		return s.matchRepo.ListSummaries(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	for i := range summaries {
		if summaries[i].RoomID != nil {
			continue
		}
		room, _, err := s.createRoom(ctx, summaries[i].Match.ID, "lazy")
		if err != nil {
			// The list is still useful; the room is retried on next open.
			s.logger.Warn("lazy chat room repair failed", "match_id", summaries[i].Match.ID, "error", err)
			continue
		}
		summaries[i].RoomID = &room.ID
	}

	return summaries, nil
}

// RepairMissingRooms is the batch form of EnsureChatRoom
func (s *matchService) RepairMissingRooms(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	matches, err := s.matchRepo.ListWithoutRoom(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find matches without room: %w", err)
	}

	repaired := 0
	var errs []error
	for _, m := range matches {
		_, created, err := s.createRoom(ctx, m.ID, "repair")
		if err != nil {
			errs = append(errs, fmt.Errorf("match %s: %w", m.ID, err))
			continue
		}
		if created {
			repaired++
		}
	}

	s.logger.Info("chat room repair finished", "scanned", len(matches), "repaired", repaired, "failed", len(errs))
	return repaired, errors.Join(errs...)
}

// ReconcilePending re-runs detection for mutual interests that never became a match
func (s *matchService) ReconcilePending(ctx context.Context, userID *string, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	strict := !s.reciprocity.SuperlikeSatisfiesLike
	pending, err := Retry(ctx, s.retry, "list unmatched mutual interests", func(ctx context.Context) ([]models.MutualInterest, error) {
		return s.interestRepo.ListUnmatchedMutual(ctx, userID, strict, limit)
	})
	if err != nil {
		return 0, fmt.Errorf("find unmatched mutual interests: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	provisioned := 0
	var errs []error
	for _, p := range pending {
		if !models.Reciprocates(p.Outgoing.Action, p.Incoming.Action, s.reciprocity.SuperlikeSatisfiesLike) {
			continue
		}
		_, _, created, err := s.Provision(ctx, p.Outgoing.ActorID, p.Outgoing.TargetID, p.Outgoing.ProjectID)
		if err != nil {
			s.metrics.DetectionFailed("reconcile")
			errs = append(errs, fmt.Errorf("interest %s: %w", p.Outgoing.ID, err))
			continue
		}
		if created {
			provisioned++
		}
	}

	s.logger.Info("pending matches reconciled", "scanned", len(pending), "provisioned", provisioned, "failed", len(errs))
	return provisioned, errors.Join(errs...)
}

// publish is best effort; subscribers can rebuild state from the API.
func (s *matchService) publish(ctx context.Context, subject string, v any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, v); err != nil {
		s.logger.Warn("publish event failed", "subject", subject, "error", err)
	}
}

// pendingPerList bounds the reconcile work done inline by ListMatches.
const pendingPerList = 50

func validatePair(userA, userB string, projectID *string) error {
	err := validation.Errors{
		"user1_id":   validation.Validate(userA, validation.Required, is.UUID),
		"user2_id":   validation.Validate(userB, validation.Required, is.UUID, validation.NotIn(userA).Error("must differ from user1_id")),
		"project_id": validation.Validate(projectID, is.UUID),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
