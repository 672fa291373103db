// Package authz decides who may do what with tasks and teams.
//
// Access to a task comes from three independent sources: ownership, a role in
// the task's team, and a direct share. AccessGrantResolver gathers those facts,
// PermissionDecisionEngine turns them into capability answers, and
// TeamRoleAuthorizer covers team-management actions. Checker is the entry point
// used by services and handlers.
//
// Nothing in this package mutates data or keeps state between calls.
package authz

import (
	"context"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

// Capability is a coarse-grained action class on a task.
type Capability string

const (
	CapabilityView   Capability = "view"
	CapabilityEdit   Capability = "edit"
	CapabilityDelete Capability = "delete"
	CapabilityShare  Capability = "share"
)

// ValidCapabilities lists all task capabilities.
var ValidCapabilities = []Capability{CapabilityView, CapabilityEdit, CapabilityDelete, CapabilityShare}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	for _, v := range ValidCapabilities {
		if v == c {
			return true
		}
	}
	return false
}

// Reason explains a decision. Grant reasons name the source that granted
// access; denial reasons are for logging and precise error messages.
type Reason string

const (
	ReasonOwner          Reason = "owner"
	ReasonTeamRole       Reason = "team_role"
	ReasonShare          Reason = "share"
	ReasonSufficientRole Reason = "sufficient_role"

	ReasonNotFound               Reason = "not_found"
	ReasonNoAccess               Reason = "no_access"
	ReasonInsufficientCapability Reason = "insufficient_capability"

	ReasonNotMember            Reason = "not_member"
	ReasonTargetNotMember      Reason = "target_not_member"
	ReasonSelfRoleChangeDenied Reason = "self_role_change_denied"
	ReasonInsufficientRole     Reason = "insufficient_role"
	ReasonLastOwnerCannotLeave Reason = "last_owner_cannot_leave"
	ReasonOwnerProtected       Reason = "owner_protected"
	ReasonInvalidRoleChange    Reason = "invalid_role_change"
)

// Decision is the outcome of a single capability check.
type Decision struct {
	Granted bool
	Reason  Reason

	// RequiredRole is set on InsufficientRole denials. It may be shown to
	// members of the team but never to outsiders.
	RequiredRole models.Role

	// Facts is populated for task decisions.
	Facts models.AccessFacts
}

func granted(reason Reason) Decision {
	return Decision{Granted: true, Reason: reason}
}

func denied(reason Reason) Decision {
	return Decision{Granted: false, Reason: reason}
}

// Hidden reports whether the denial must look like a missing resource to the
// caller. Only task denials where the caller cannot even view the task are
// hidden.
func (d Decision) Hidden() bool {
	return !d.Granted && (d.Reason == ReasonNotFound || d.Reason == ReasonNoAccess)
}

// Err converts a denial into an error for callers that propagate errors.
// It returns nil for granted decisions.
func (d Decision) Err() error {
	if d.Granted {
		return nil
	}
	var cause error
	switch d.Reason {
	case ReasonSelfRoleChangeDenied:
		cause = apperrors.ErrSelfRoleChangeDenied
	case ReasonInsufficientRole:
		cause = apperrors.ErrInsufficientRole
	case ReasonLastOwnerCannotLeave:
		cause = apperrors.ErrLastOwnerCannotLeave
	}
	return apperrors.NewDeniedError(string(d.Reason), d.Hidden(), string(d.RequiredRole), cause)
}

// AuditSink receives one event per decision. Implementations may fail; the
// failure is logged and never changes the decision.
type AuditSink interface {
	Record(ctx context.Context, event *models.DecisionEvent) error
}
