package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPError is implemented by errors that carry their own HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the caller is not a party to the resource
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("action failed, please retry")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// ConflictError represents a uniqueness conflict with details about the existing resource.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // interest, match, chat_room, profile
	ResourceID   string // ID of the existing resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UnavailableError wraps a transient storage or network failure.
// Callers may retry the operation that produced it.
type UnavailableError struct {
	Op    string
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrUnavailable)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrUnavailable, e.Cause)
}

func (e *UnavailableError) StatusCode() int {
	return http.StatusServiceUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// RateLimitError is returned when a caller exceeds a per-user action budget.
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, ErrRateLimited)
}

func (e *RateLimitError) StatusCode() int {
	return http.StatusTooManyRequests
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
