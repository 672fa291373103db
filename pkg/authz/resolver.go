package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

// TaskFinder loads a task by ID. Missing tasks return an error matching
// apperrors.ErrNotFound.
type TaskFinder interface {
	FindTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
}

// MembershipFinder loads a team membership. A user with no membership
// yields (nil, nil).
type MembershipFinder interface {
	FindTeamMembership(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMembership, error)
}

// ShareFinder loads a direct share. No share yields (nil, nil).
type ShareFinder interface {
	FindTaskShare(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskShare, error)
}

// ErrMissingActingUser is returned when a check is made without a caller.
var ErrMissingActingUser = errors.New("acting user ID is required")

// AccessGrantResolver gathers the access facts for a user and a task.
type AccessGrantResolver struct {
	tasks   TaskFinder
	members MembershipFinder
	shares  ShareFinder
}

// NewAccessGrantResolver creates a resolver over the given lookups.
func NewAccessGrantResolver(tasks TaskFinder, members MembershipFinder, shares ShareFinder) *AccessGrantResolver {
	return &AccessGrantResolver{
		tasks:   tasks,
		members: members,
		shares:  shares,
	}
}

// ResolveByID loads the task and resolves facts for it.
// Returns apperrors.ErrTaskNotFound if the task does not exist.
func (r *AccessGrantResolver) ResolveByID(ctx context.Context, actingUserID, taskID uuid.UUID) (*models.Task, models.AccessFacts, error) {
	if actingUserID == uuid.Nil {
		return nil, models.AccessFacts{}, ErrMissingActingUser
	}

	task, err := r.tasks.FindTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, models.AccessFacts{}, apperrors.ErrTaskNotFound
		}
		return nil, models.AccessFacts{}, fmt.Errorf("failed to find task: %w", err)
	}

	facts, err := r.Resolve(ctx, actingUserID, task)
	if err != nil {
		return nil, models.AccessFacts{}, err
	}
	return task, facts, nil
}

// Resolve reports every grant source the user holds on task. It compares
// ownership in memory, looks up team membership only for team tasks, and
// always looks up a direct share.
func (r *AccessGrantResolver) Resolve(ctx context.Context, actingUserID uuid.UUID, task *models.Task) (models.AccessFacts, error) {
	var facts models.AccessFacts

	if actingUserID == uuid.Nil {
		return facts, ErrMissingActingUser
	}
	if task == nil {
		return facts, apperrors.ErrTaskNotFound
	}

	facts.IsOwner = task.OwnerID == actingUserID

	if task.TeamID != nil {
		membership, err := r.members.FindTeamMembership(ctx, *task.TeamID, actingUserID)
		if err != nil {
			return models.AccessFacts{}, fmt.Errorf("failed to find team membership: %w", err)
		}
		// Unknown roles grant nothing.
		if membership != nil && membership.Role.Valid() {
			role := membership.Role
			facts.TeamRole = &role
		}
	}

	share, err := r.shares.FindTaskShare(ctx, task.ID, actingUserID)
	if err != nil {
		return models.AccessFacts{}, fmt.Errorf("failed to find task share: %w", err)
	}
	if share != nil && share.Permission.Valid() {
		perm := share.Permission
		facts.SharePermission = &perm
	}

	return facts, nil
}
