package services

import (
	"context"

	"devmatch/internal/domain/models"
)

// UpsertProfileRequest replaces the caller's profile
type UpsertProfileRequest struct {
	UserID      string   `json:"-"`
	DisplayName string   `json:"display_name"`
	Headline    string   `json:"headline"`
	Bio         string   `json:"bio"`
	Skills      []string `json:"skills"`
	AvatarURL   string   `json:"avatar_url"`
}

// ProfileService manages user profiles and the people deck
type ProfileService interface {
	UpsertProfile(ctx context.Context, req *UpsertProfileRequest) (*models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)

	// Deck returns profiles the actor has not swiped on in the scope
	Deck(ctx context.Context, actorID string, projectID *string, limit int) ([]models.Profile, error)
}
