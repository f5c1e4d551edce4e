package models

import (
	"fmt"
	"strings"
	"time"
)

// InterestAction is the closed set of swipe actions.
type InterestAction string

const (
	ActionLike      InterestAction = "like"
	ActionSuperlike InterestAction = "superlike"
	ActionSkip      InterestAction = "skip"
)

// InterestActions lists every valid action, in display order.
var InterestActions = []InterestAction{ActionLike, ActionSuperlike, ActionSkip}

// ParseInterestAction rejects anything outside the closed set.
func ParseInterestAction(s string) (InterestAction, error) {
	a := InterestAction(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown interest action %q", s)
	}
	return a, nil
}

func (a InterestAction) Valid() bool {
	switch a {
	case ActionLike, ActionSuperlike, ActionSkip:
		return true
	}
	return false
}

// IsPositive reports whether the action expresses interest. Skip never does.
func (a InterestAction) IsPositive() bool {
	return a == ActionLike || a == ActionSuperlike
}

func (a InterestAction) String() string { return string(a) }

// ReciprocalActions lists the reverse actions that complete a match with a.
// In strict mode only the identical action does.
func ReciprocalActions(a InterestAction, superlikeSatisfiesLike bool) []InterestAction {
	if !a.IsPositive() {
		return nil
	}
	if superlikeSatisfiesLike {
		return []InterestAction{ActionLike, ActionSuperlike}
	}
	return []InterestAction{a}
}

// Reciprocates reports whether a and reverse together make a match.
func Reciprocates(a, reverse InterestAction, superlikeSatisfiesLike bool) bool {
	for _, r := range ReciprocalActions(a, superlikeSatisfiesLike) {
		if r == reverse {
			return true
		}
	}
	return false
}

// Interest is one actor's recorded reaction to a target, optionally scoped to a project.
// At most one interest exists per (ActorID, TargetID, ProjectID).
type Interest struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	TargetID  string         `json:"target_id"`
	ProjectID *string        `json:"project_id,omitempty"`
	Action    InterestAction `json:"action"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Scope returns the matching scope key for the interest's project.
func (i *Interest) Scope() string {
	return ScopeKey(i.ProjectID)
}

// GlobalScope is the scope key used when no project is attached.
const GlobalScope = "00000000-0000-0000-0000-000000000000"

// ScopeKey maps an optional project ID to a non-null scope key.
func ScopeKey(projectID *string) string {
	if projectID == nil || *projectID == "" {
		return GlobalScope
	}
	return *projectID
}

// SameProject compares two optional project IDs by scope.
func SameProject(a, b *string) bool {
	return ScopeKey(a) == ScopeKey(b)
}

// MutualInterest is a pair of positive interests between two users in one scope
// for which no match exists yet.
type MutualInterest struct {
	Outgoing Interest
	Incoming Interest
}
