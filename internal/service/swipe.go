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
	"devmatch/internal/metrics"
)

// swipeService implements services.SwipeService
type swipeService struct {
	interestRepo repositories.InterestRepository
	profileRepo  repositories.ProfileRepository
	projectRepo  repositories.ProjectRepository
	matches      services.MatchService
	policy       *config.Policy
	retry        *Retrier
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewSwipeService creates a new swipe service
func NewSwipeService(
	interestRepo repositories.InterestRepository,
	profileRepo repositories.ProfileRepository,
	projectRepo repositories.ProjectRepository,
	matches services.MatchService,
	policy *config.Policy,
	retry *Retrier,
	m *metrics.Metrics,
	logger *slog.Logger,
) services.SwipeService {
	return &swipeService{
		interestRepo: interestRepo,
		profileRepo:  profileRepo,
		projectRepo:  projectRepo,
		matches:      matches,
		policy:       policy,
		retry:        retry,
		metrics:      m,
		logger:       logger,
	}
}

// RecordInterest validates and stores one swipe
func (s *swipeService) RecordInterest(ctx context.Context, req *services.RecordInterestRequest) (*models.Interest, error) {
	if err := s.validateRecordRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	action, _ := models.ParseInterestAction(req.Action)
	projectID := normalizeOptionalID(req.ProjectID)

	if _, err := Retry(ctx, s.retry, "get target profile", func(ctx context.Context) (*models.Profile, error) {
		return s.profileRepo.GetByID(ctx, req.TargetID)
	}); err != nil {
		return nil, err
	}

	if projectID != nil {
		project, err := Retry(ctx, s.retry, "get project", func(ctx context.Context) (*models.Project, error) {
			return s.projectRepo.GetByID(ctx, *projectID)
		})
		if err != nil {
			return nil, err
		}
		if project.OwnerID != req.ActorID && project.OwnerID != req.TargetID {
			return nil, &domain.ValidationError{Message: "project must belong to one of the two users"}
		}
	}

	now := time.Now()
	interest := &models.Interest{
		ActorID:   req.ActorID,
		TargetID:  req.TargetID,
		ProjectID: projectID,
		Action:    action,
		CreatedAt: now,
		UpdatedAt: now,
	}

	replace := s.policy.Reswipe == config.ReswipeReplace
	err := s.retry.Do(ctx, "record interest", func(ctx context.Context) error {
		return s.interestRepo.Upsert(ctx, interest, replace)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) && interest.ID != "" {
			s.metrics.SwipeRecorded(string(action), "duplicate")
			return interest, err
		}
		s.metrics.SwipeRecorded(string(action), "error")
		return nil, err
	}

	s.metrics.SwipeRecorded(string(action), "recorded")
	s.logger.Info("interest recorded",
		"id", interest.ID,
		"actor_id", interest.ActorID,
		"target_id", interest.TargetID,
		"project_id", models.ScopeKey(interest.ProjectID),
		"action", interest.Action,
	)

	return interest, nil
}

// FindReciprocalInterest returns the target's positive interest in the actor, if any
func (s *swipeService) FindReciprocalInterest(ctx context.Context, actorID, targetID string, projectID *string) (*models.Interest, error) {
	err := validation.Errors{
		"actor_id":   validation.Validate(actorID, validation.Required, is.UUID),
		"target_id":  validation.Validate(targetID, validation.Required, is.UUID),
		"project_id": validation.Validate(projectID, is.UUID),
	}.Filter()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.findReciprocal(ctx, actorID, targetID, normalizeOptionalID(projectID),
		[]models.InterestAction{models.ActionLike, models.ActionSuperlike})
}

func (s *swipeService) findReciprocal(ctx context.Context, actorID, targetID string, projectID *string, actions []models.InterestAction) (*models.Interest, error) {
	return Retry(ctx, s.retry, "find reciprocal interest", func(ctx context.Context) (*models.Interest, error) {
		return s.interestRepo.FindReciprocal(ctx, actorID, targetID, projectID, actions)
	})
}

// reciprocalActions lists the actions of a reverse interest that complete a match with action.
func (s *swipeService) reciprocalActions(action models.InterestAction) []models.InterestAction {
	return models.ReciprocalActions(action, s.policy.Reciprocity.SuperlikeSatisfiesLike)
}

// HasMutualInterest loads both directions and applies the reciprocity policy to the pair
func (s *swipeService) HasMutualInterest(ctx context.Context, userA, userB string, projectID *string) (bool, error) {
	err := validation.Errors{
		"user_a":     validation.Validate(userA, validation.Required, is.UUID),
		"user_b":     validation.Validate(userB, validation.Required, is.UUID),
		"project_id": validation.Validate(projectID, is.UUID),
	}.Filter()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	projectID = normalizeOptionalID(projectID)

	get := func(actor, target string) (*models.Interest, error) {
		return Retry(ctx, s.retry, "get interest", func(ctx context.Context) (*models.Interest, error) {
			return s.interestRepo.Get(ctx, actor, target, projectID)
		})
	}
	ab, err := get(userA, userB)
	if err != nil || ab == nil {
		return false, err
	}
	ba, err := get(userB, userA)
	if err != nil || ba == nil {
		return false, err
	}
	return models.Reciprocates(ab.Action, ba.Action, s.policy.Reciprocity.SuperlikeSatisfiesLike), nil
}

// ProposeInterest records the swipe, then detects and provisions a match.
// Once the interest is stored the swipe succeeds: detection failures only set DetectionPending.
func (s *swipeService) ProposeInterest(ctx context.Context, req *services.RecordInterestRequest) (*services.SwipeResult, error) {
	interest, err := s.RecordInterest(ctx, req)
	result := &services.SwipeResult{Interest: interest}
	if err != nil {
		if interest == nil || !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		result.Duplicate = true
	}

	actions := s.reciprocalActions(interest.Action)
	if len(actions) == 0 {
		return result, nil
	}

	reciprocal, err := s.findReciprocal(ctx, interest.ActorID, interest.TargetID, interest.ProjectID, actions)
	if err != nil {
		s.metrics.DetectionFailed("lookup")
		s.logger.Warn("match detection deferred: reciprocal lookup failed",
			"interest_id", interest.ID,
			"actor_id", interest.ActorID,
			"target_id", interest.TargetID,
			"error", err,
		)
		result.DetectionPending = true
		return result, nil
	}
	if reciprocal == nil {
		return result, nil
	}

	match, room, created, err := s.matches.Provision(ctx, interest.ActorID, interest.TargetID, interest.ProjectID)
	if err != nil {
		s.metrics.DetectionFailed("provision")
		s.logger.Error("match detection deferred: provisioning failed",
			"interest_id", interest.ID,
			"reciprocal_id", reciprocal.ID,
			"error", err,
		)
		result.DetectionPending = true
		return result, nil
	}

	result.Matched = true
	result.Match = match
	result.ChatRoom = room
	result.AlreadyMatched = !created
	return result, nil
}

func (s *swipeService) validateRecordRequest(req *services.RecordInterestRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ActorID, validation.Required, is.UUID),
		validation.Field(&req.TargetID, validation.Required, is.UUID,
			validation.NotIn(req.ActorID).Error("cannot swipe on yourself")),
		validation.Field(&req.ProjectID, is.UUID),
		validation.Field(&req.Action, validation.Required, validation.By(func(v any) error {
			_, err := models.ParseInterestAction(v.(string))
			return err
		})),
	)
	return err
}

// normalizeOptionalID treats an empty project ID as no project.
func normalizeOptionalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}
