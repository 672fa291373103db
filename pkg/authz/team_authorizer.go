package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

// TeamAction is a team-management mutation that needs authorization.
type TeamAction string

const (
	TeamActionInviteMember      TeamAction = "invite_member"
	TeamActionRemoveMember      TeamAction = "remove_member"
	TeamActionChangeRole        TeamAction = "change_role"
	TeamActionPromoteToAdmin    TeamAction = "promote_to_admin"
	TeamActionDemoteAdmin       TeamAction = "demote_admin"
	TeamActionTransferOwnership TeamAction = "transfer_ownership"
	TeamActionDeleteTeam        TeamAction = "delete_team"
	TeamActionLeaveTeam         TeamAction = "leave_team"
)

// changesRole reports whether the action alters some member's role.
func (a TeamAction) changesRole() bool {
	switch a {
	case TeamActionChangeRole, TeamActionPromoteToAdmin, TeamActionDemoteAdmin, TeamActionTransferOwnership:
		return true
	}
	return false
}

// Valid reports whether a is a known team action.
func (a TeamAction) Valid() bool {
	switch a {
	case TeamActionInviteMember, TeamActionRemoveMember, TeamActionChangeRole,
		TeamActionPromoteToAdmin, TeamActionDemoteAdmin, TeamActionTransferOwnership,
		TeamActionDeleteTeam, TeamActionLeaveTeam:
		return true
	}
	return false
}

// TeamActionRequest describes the action being authorized.
// TargetUserID is required for actions on another member. NewRole applies to
// invite (default Member), change_role (required) and demote_admin (default
// Member).
type TeamActionRequest struct {
	Action       TeamAction
	TargetUserID uuid.UUID
	NewRole      models.Role
}

// TeamRoleAuthorizer authorizes team-management actions from the acting
// user's role in the team.
type TeamRoleAuthorizer struct {
	members MembershipFinder
	engine  *PermissionDecisionEngine
}

// NewTeamRoleAuthorizer creates an authorizer. Decisions are reported through
// the engine's audit sink.
func NewTeamRoleAuthorizer(members MembershipFinder, engine *PermissionDecisionEngine) *TeamRoleAuthorizer {
	return &TeamRoleAuthorizer{
		members: members,
		engine:  engine,
	}
}

// Authorize decides whether actingUserID may perform req on teamID.
// The error is non-nil only for lookup failures or malformed requests.
func (a *TeamRoleAuthorizer) Authorize(ctx context.Context, actingUserID, teamID uuid.UUID, req TeamActionRequest) (Decision, error) {
	if actingUserID == uuid.Nil {
		return Decision{}, ErrMissingActingUser
	}
	if !req.Action.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown team action %q", apperrors.ErrInvalidInput, req.Action)
	}

	d, actingRole, err := a.decide(ctx, actingUserID, teamID, req)
	if err != nil {
		return Decision{}, err
	}

	event := &models.DecisionEvent{
		ActingUserID: actingUserID,
		Scope:        models.DecisionScopeTeam,
		ResourceID:   teamID,
		Check:        string(req.Action),
		Granted:      d.Granted,
		Reason:       string(d.Reason),
		ActingRole:   actingRole,
	}
	if req.TargetUserID != uuid.Nil {
		target := req.TargetUserID
		event.TargetUserID = &target
	}
	a.engine.emit(ctx, event)

	return d, nil
}

func (a *TeamRoleAuthorizer) decide(ctx context.Context, actingUserID, teamID uuid.UUID, req TeamActionRequest) (Decision, *models.Role, error) {
	// A user never changes their own role, whatever role they hold.
	if req.Action.changesRole() && req.TargetUserID == actingUserID {
		return denied(ReasonSelfRoleChangeDenied), nil, nil
	}

	acting, err := a.members.FindTeamMembership(ctx, teamID, actingUserID)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("failed to find acting membership: %w", err)
	}
	if acting == nil || !acting.Role.Valid() {
		return denied(ReasonNotMember), nil, nil
	}
	role := acting.Role

	switch req.Action {
	case TeamActionLeaveTeam:
		return decideLeave(role), &role, nil

	case TeamActionDeleteTeam:
		return requireRole(role, models.RoleOwner), &role, nil

	case TeamActionInviteMember:
		newRole := req.NewRole
		if newRole == "" {
			newRole = models.RoleMember
		}
		switch newRole {
		case models.RoleMember, models.RoleViewer:
			return requireRole(role, models.RoleAdmin), &role, nil
		case models.RoleAdmin:
			return requireRole(role, models.RoleOwner), &role, nil
		default:
			return denied(ReasonInvalidRoleChange), &role, nil
		}

	case TeamActionTransferOwnership:
		if d := requireRole(role, models.RoleOwner); !d.Granted {
			return d, &role, nil
		}
		target, err := a.findTarget(ctx, teamID, req.TargetUserID)
		if err != nil {
			return Decision{}, &role, err
		}
		if target == nil {
			return denied(ReasonTargetNotMember), &role, nil
		}
		return granted(ReasonSufficientRole), &role, nil

	case TeamActionRemoveMember:
		if req.TargetUserID == actingUserID {
			return decideLeave(role), &role, nil
		}
		if d := requireRole(role, models.RoleAdmin); !d.Granted {
			return d, &role, nil
		}
		target, err := a.findTarget(ctx, teamID, req.TargetUserID)
		if err != nil {
			return Decision{}, &role, err
		}
		if target == nil {
			return denied(ReasonTargetNotMember), &role, nil
		}
		switch target.Role {
		case models.RoleOwner:
			return denied(ReasonOwnerProtected), &role, nil
		case models.RoleAdmin:
			return requireRole(role, models.RoleOwner), &role, nil
		}
		return granted(ReasonSufficientRole), &role, nil

	case TeamActionChangeRole, TeamActionPromoteToAdmin, TeamActionDemoteAdmin:
		return a.decideRoleChange(ctx, teamID, role, req)
	}

	return denied(ReasonInsufficientRole), &role, nil
}

// decideRoleChange covers change_role, promote_to_admin and demote_admin.
// Moves between Member and Viewer need Admin; anything touching the Admin
// role needs Owner; nobody gains or loses Owner outside a transfer.
func (a *TeamRoleAuthorizer) decideRoleChange(ctx context.Context, teamID uuid.UUID, role models.Role, req TeamActionRequest) (Decision, *models.Role, error) {
	newRole := req.NewRole
	switch req.Action {
	case TeamActionPromoteToAdmin:
		newRole = models.RoleAdmin
	case TeamActionDemoteAdmin:
		if newRole == "" {
			newRole = models.RoleMember
		}
		if newRole != models.RoleMember && newRole != models.RoleViewer {
			return denied(ReasonInvalidRoleChange), &role, nil
		}
	}
	if !newRole.Valid() || newRole == models.RoleOwner {
		return denied(ReasonInvalidRoleChange), &role, nil
	}

	// Check the caller's own standing before revealing anything about the target.
	if d := requireRole(role, models.RoleAdmin); !d.Granted {
		return d, &role, nil
	}
	if newRole == models.RoleAdmin {
		if d := requireRole(role, models.RoleOwner); !d.Granted {
			return d, &role, nil
		}
	}

	target, err := a.findTarget(ctx, teamID, req.TargetUserID)
	if err != nil {
		return Decision{}, &role, err
	}
	if target == nil {
		return denied(ReasonTargetNotMember), &role, nil
	}
	if target.Role == models.RoleOwner {
		return denied(ReasonOwnerProtected), &role, nil
	}
	if req.Action == TeamActionDemoteAdmin && target.Role != models.RoleAdmin {
		return denied(ReasonInvalidRoleChange), &role, nil
	}
	if target.Role == models.RoleAdmin {
		return requireRole(role, models.RoleOwner), &role, nil
	}
	return granted(ReasonSufficientRole), &role, nil
}

func (a *TeamRoleAuthorizer) findTarget(ctx context.Context, teamID, targetUserID uuid.UUID) (*models.TeamMembership, error) {
	if targetUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: target user is required", apperrors.ErrInvalidInput)
	}
	target, err := a.members.FindTeamMembership(ctx, teamID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find target membership: %w", err)
	}
	if target == nil || !target.Role.Valid() {
		return nil, nil
	}
	return target, nil
}

func decideLeave(role models.Role) Decision {
	if role == models.RoleOwner {
		return denied(ReasonLastOwnerCannotLeave)
	}
	return granted(ReasonSufficientRole)
}

func requireRole(have, need models.Role) Decision {
	if have.AtLeast(need) {
		return granted(ReasonSufficientRole)
	}
	d := denied(ReasonInsufficientRole)
	d.RequiredRole = need
	return d
}
