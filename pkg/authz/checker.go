package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

// TeamFinder loads a team by ID. Missing teams return an error matching
// apperrors.ErrNotFound.
type TeamFinder interface {
	FindTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
}

// Checker is the boundary used by services and handlers. Every call takes the
// acting user explicitly; nothing is read from request-global state.
type Checker struct {
	resolver *AccessGrantResolver
	engine   *PermissionDecisionEngine
	teams    *TeamRoleAuthorizer
	teamDir  TeamFinder
	logger   *zap.Logger
}

// NewChecker wires the resolver, engine and team authorizer.
func NewChecker(resolver *AccessGrantResolver, engine *PermissionDecisionEngine, teams *TeamRoleAuthorizer, teamDir TeamFinder, logger *zap.Logger) *Checker {
	return &Checker{
		resolver: resolver,
		engine:   engine,
		teams:    teams,
		teamDir:  teamDir,
		logger:   logger.Named("authz-checker"),
	}
}

// CheckTaskCapability decides whether actingUserID holds capability on taskID.
// A missing task yields a ReasonNotFound denial, not an error.
func (c *Checker) CheckTaskCapability(ctx context.Context, actingUserID, taskID uuid.UUID, capability Capability) (Decision, error) {
	_, d, err := c.AuthorizeTask(ctx, actingUserID, taskID, capability)
	return d, err
}

// AuthorizeTask is CheckTaskCapability that also returns the loaded task so
// callers do not look it up twice. The task is nil unless the decision is
// granted.
func (c *Checker) AuthorizeTask(ctx context.Context, actingUserID, taskID uuid.UUID, capability Capability) (*models.Task, Decision, error) {
	task, facts, err := c.resolver.ResolveByID(ctx, actingUserID, taskID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTaskNotFound) {
			return nil, c.engine.DecideNotFound(ctx, actingUserID, taskID, capability), nil
		}
		return nil, Decision{}, err
	}

	d := c.engine.Decide(ctx, actingUserID, taskID, capability, facts)
	if !d.Granted {
		c.logger.Debug("Task access denied",
			zap.String("acting_user_id", actingUserID.String()),
			zap.String("task_id", taskID.String()),
			zap.String("capability", string(capability)),
			zap.String("reason", string(d.Reason)))
		return nil, d, nil
	}
	return task, d, nil
}

// TaskCapabilities returns every capability the user holds on the task.
// Callers that cannot view the task get a hidden denial instead.
func (c *Checker) TaskCapabilities(ctx context.Context, actingUserID, taskID uuid.UUID) (*models.Task, Capabilities, Decision, error) {
	task, d, err := c.AuthorizeTask(ctx, actingUserID, taskID, CapabilityView)
	if err != nil || !d.Granted {
		return nil, Capabilities{}, d, err
	}
	return task, Evaluate(d.Facts), d, nil
}

// CheckTeamCapability decides whether actingUserID may perform req on teamID.
func (c *Checker) CheckTeamCapability(ctx context.Context, actingUserID, teamID uuid.UUID, req TeamActionRequest) (Decision, error) {
	if c.teamDir != nil {
		if _, err := c.teamDir.FindTeam(ctx, teamID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return denied(ReasonNotFound), nil
			}
			return Decision{}, fmt.Errorf("failed to find team: %w", err)
		}
	}
	return c.teams.Authorize(ctx, actingUserID, teamID, req)
}
