package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
)

// AccessChecker is the subset of authz.Checker used by the services.
type AccessChecker interface {
	AuthorizeTask(ctx context.Context, actingUserID, taskID uuid.UUID, capability authz.Capability) (*models.Task, authz.Decision, error)
	TaskCapabilities(ctx context.Context, actingUserID, taskID uuid.UUID) (*models.Task, authz.Capabilities, authz.Decision, error)
	CheckTeamCapability(ctx context.Context, actingUserID, teamID uuid.UUID, req authz.TeamActionRequest) (authz.Decision, error)
}

var _ AccessChecker = (*authz.Checker)(nil)

// authorizeTask loads the task if the user holds capability on it.
func authorizeTask(ctx context.Context, checker AccessChecker, actingUserID, taskID uuid.UUID, capability authz.Capability) (*models.Task, error) {
	task, d, err := checker.AuthorizeTask(ctx, actingUserID, taskID, capability)
	if err != nil {
		return nil, fmt.Errorf("failed to check task access: %w", err)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return task, nil
}

// authorizeTeam runs a team action check. Team denials are never hidden:
// a missing team and a team the caller is not in both come back as 403.
func authorizeTeam(ctx context.Context, checker AccessChecker, actingUserID, teamID uuid.UUID, req authz.TeamActionRequest) error {
	d, err := checker.CheckTeamCapability(ctx, actingUserID, teamID, req)
	if err != nil {
		return fmt.Errorf("failed to check team access: %w", err)
	}
	return teamDenial(d)
}

func teamDenial(d authz.Decision) error {
	if d.Granted {
		return nil
	}
	if d.Hidden() {
		return apperrors.NewDeniedError(string(authz.ReasonNotMember), false, "", nil)
	}
	return d.Err()
}

// MembershipLookup finds a user's membership in a team; (nil, nil) when absent.
type MembershipLookup interface {
	FindTeamMembership(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMembership, error)
}

// requireMembership returns the caller's membership, or a not_member denial.
func requireMembership(ctx context.Context, members MembershipLookup, teamID, userID uuid.UUID) (*models.TeamMembership, error) {
	m, err := members.FindTeamMembership(ctx, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find team membership: %w", err)
	}
	if m == nil || !m.Role.Valid() {
		return nil, apperrors.NewDeniedError(string(authz.ReasonNotMember), false, "", nil)
	}
	return m, nil
}

// requireContributor is requireMembership that also rejects Viewers.
func requireContributor(ctx context.Context, members MembershipLookup, teamID, userID uuid.UUID) error {
	m, err := requireMembership(ctx, members, teamID, userID)
	if err != nil {
		return err
	}
	if !m.Role.AtLeast(models.RoleMember) {
		return apperrors.NewDeniedError(string(authz.ReasonInsufficientRole), false, string(models.RoleMember), apperrors.ErrInsufficientRole)
	}
	return nil
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}
