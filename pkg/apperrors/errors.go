package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidInput = errors.New("invalid input")
	ErrLastOwner    = errors.New("team must keep exactly one owner")

	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)
	ErrTeamNotFound = fmt.Errorf("team %w", ErrNotFound)

	// Team-action denial reasons. Callers match these with errors.Is for
	// precise messages; all of them also match ErrForbidden.
	ErrSelfRoleChangeDenied = errors.New("cannot change own role")
	ErrInsufficientRole     = errors.New("insufficient team role")
	ErrLastOwnerCannotLeave = errors.New("owner must transfer ownership before leaving")
)

// DeniedError is returned when an authorization check does not grant the
// requested capability. Hidden denials match ErrNotFound so the caller cannot
// tell a missing resource from one it may not see; visible denials match
// ErrForbidden.
type DeniedError struct {
	Reason       string
	Hidden       bool
	RequiredRole string
	cause        error
}

// NewDeniedError builds a DeniedError. cause may be nil.
func NewDeniedError(reason string, hidden bool, requiredRole string, cause error) *DeniedError {
	return &DeniedError{Reason: reason, Hidden: hidden, RequiredRole: requiredRole, cause: cause}
}

func (e *DeniedError) Error() string {
	if e.Hidden {
		return "not found"
	}
	return "access denied: " + e.Reason
}

// Is reports whether target is the sentinel the denial collapses to.
func (e *DeniedError) Is(target error) bool {
	if e.Hidden {
		return target == ErrNotFound
	}
	return target == ErrForbidden
}

func (e *DeniedError) Unwrap() error {
	return e.cause
}
