package services

import (
	"context"

	"devmatch/internal/domain/models"
)

// RecordInterestRequest is a single swipe by the authenticated actor.
type RecordInterestRequest struct {
	ActorID   string  `json:"-"`
	TargetID  string  `json:"target_id"`
	ProjectID *string `json:"project_id,omitempty"`
	Action    string  `json:"action"`
}

// SwipeResult tells the client what a swipe produced.
type SwipeResult struct {
	Interest *models.Interest `json:"interest"`

	// Duplicate is set when the interest was already recorded and left unchanged.
	Duplicate bool `json:"duplicate"`

	Matched  bool             `json:"matched"`
	Match    *models.Match    `json:"match,omitempty"`
	ChatRoom *models.ChatRoom `json:"chat_room,omitempty"`

	// AlreadyMatched is set when the pair was matched before this swipe.
	AlreadyMatched bool `json:"already_matched"`

	// DetectionPending is set when the interest was stored but match detection
	// or provisioning failed. Detection runs again on the pair's next swipe, when
	// either party lists matches, and in the matchctl reconcile sweep.
	DetectionPending bool `json:"detection_pending"`
}

// SwipeService records interests and detects mutual matches.
type SwipeService interface {
	// RecordInterest persists the swipe with no matching side effects.
	// When the interest already exists and the policy keeps it, the stored interest
	// is returned together with a *domain.ConflictError.
	RecordInterest(ctx context.Context, req *RecordInterestRequest) (*models.Interest, error)

	// FindReciprocalInterest returns targetID's positive interest in actorID in the
	// same scope, or nil.
	FindReciprocalInterest(ctx context.Context, actorID, targetID string, projectID *string) (*models.Interest, error)

	// HasMutualInterest reports whether both users hold interests in each other in the
	// scope that complete a match under the reciprocity policy.
	HasMutualInterest(ctx context.Context, userA, userB string, projectID *string) (bool, error)

	// ProposeInterest records the swipe and, for positive actions, detects and
	// provisions a match in one backend call.
	ProposeInterest(ctx context.Context, req *RecordInterestRequest) (*SwipeResult, error)
}
