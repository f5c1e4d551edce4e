package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"devmatch/internal/config"
	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/domain/services"
)

// profileService implements services.ProfileService
type profileService struct {
	profileRepo repositories.ProfileRepository
	projectRepo repositories.ProjectRepository
	logger      *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	profileRepo repositories.ProfileRepository,
	projectRepo repositories.ProjectRepository,
	logger *slog.Logger,
) services.ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// UpsertProfile creates or replaces the caller's profile
func (s *profileService) UpsertProfile(ctx context.Context, req *services.UpsertProfileRequest) (*models.Profile, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Headline = strings.TrimSpace(req.Headline)
	req.Skills = normalizeSkills(req.Skills)

	if err := s.validateUpsertRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	profile := &models.Profile{
		ID:          req.UserID,
		DisplayName: req.DisplayName,
		Headline:    req.Headline,
		Bio:         strings.TrimSpace(req.Bio),
		Skills:      req.Skills,
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile saved", "user_id", profile.ID)
	return profile, nil
}

// GetProfile retrieves a profile by user ID
func (s *profileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, id)
}

// Deck returns candidates the actor has not swiped on yet
func (s *profileService) Deck(ctx context.Context, actorID string, projectID *string, limit int) ([]models.Profile, error) {
	projectID = normalizeOptionalID(projectID)
	if projectID != nil {
		if err := validation.Validate(*projectID, is.UUID); err != nil {
			return nil, fmt.Errorf("%w: project_id: %v", domain.ErrValidation, err)
		}
		if _, err := s.projectRepo.GetByID(ctx, *projectID); err != nil {
			return nil, err
		}
	}
	return s.profileRepo.ListUnswiped(ctx, actorID, projectID, clampDeck(limit))
}

func (s *profileService) validateUpsertRequest(req *services.UpsertProfileRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required, is.UUID),
		validation.Field(&req.DisplayName, validation.Required, validation.RuneLength(1, config.MaxDisplayNameLength)),
		validation.Field(&req.Headline, validation.RuneLength(0, config.MaxHeadlineLength)),
		validation.Field(&req.Bio, validation.RuneLength(0, config.MaxBioLength)),
		validation.Field(&req.Skills, validation.Length(0, config.MaxSkills),
			validation.Each(validation.RuneLength(1, config.MaxSkillLength))),
		validation.Field(&req.AvatarURL, is.URL),
	)
}

// normalizeSkills trims, lowercases and dedupes skill tags, keeping first-seen order.
func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, sk := range skills {
		sk = strings.ToLower(strings.TrimSpace(sk))
		if sk == "" || seen[sk] {
			continue
		}
		seen[sk] = true
		out = append(out, sk)
	}
	return out
}

func clampDeck(limit int) int {
	switch {
	case limit <= 0:
		return config.DefaultDeckSize
	case limit > config.MaxDeckSize:
		return config.MaxDeckSize
	}
	return limit
}
