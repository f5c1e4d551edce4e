package auth

import (
	"context"
	"fmt"

	"devmatch/internal/domain"
	"devmatch/internal/domain/repositories"
)

// ParticipantAuthorizer implements services.ParticipantAuthorizer.
// Only the two matched users can see a match, its room and its messages.
type ParticipantAuthorizer struct {
	matchRepo repositories.MatchRepository
	roomRepo  repositories.ChatRoomRepository
}

// NewParticipantAuthorizer creates a new participant-based authorizer
func NewParticipantAuthorizer(
	matchRepo repositories.MatchRepository,
	roomRepo repositories.ChatRoomRepository,
) *ParticipantAuthorizer {
	return &ParticipantAuthorizer{
		matchRepo: matchRepo,
		roomRepo:  roomRepo,
	}
}

// CanAccessMatch checks that userID is one of the match's users
func (a *ParticipantAuthorizer) CanAccessMatch(ctx context.Context, userID, matchID string) error {
	match, err := a.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.HasParticipant(userID) {
		return fmt.Errorf("access denied to match %s: %w", matchID, domain.ErrForbidden)
	}
	return nil
}

// CanAccessRoom checks access through the room's match
func (a *ParticipantAuthorizer) CanAccessRoom(ctx context.Context, userID, roomID string) error {
	room, err := a.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	return a.CanAccessMatch(ctx, userID, room.MatchID)
}
