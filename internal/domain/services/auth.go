package services

import "context"

// ParticipantAuthorizer checks that a user is a party to a match or its chat room.
// Services call it before reading or writing conversation data.
type ParticipantAuthorizer interface {
	// CanAccessMatch returns domain.ErrForbidden unless userID is one of the match's users
	CanAccessMatch(ctx context.Context, userID, matchID string) error

	// CanAccessRoom checks access through the room's match
	CanAccessRoom(ctx context.Context, userID, roomID string) error
}
