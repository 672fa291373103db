package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/models"
)

// Capabilities is the full capability set derived from one AccessFacts.
type Capabilities struct {
	View   bool `json:"can_view"`
	Edit   bool `json:"can_edit"`
	Delete bool `json:"can_delete"`
	Share  bool `json:"can_share"`
}

// Allows reports whether c is included in the set.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapabilityView:
		return c.View
	case CapabilityEdit:
		return c.Edit
	case CapabilityDelete:
		return c.Delete
	case CapabilityShare:
		return c.Share
	}
	return false
}

func teamRoleAtLeast(f models.AccessFacts, min models.Role) bool {
	return f.TeamRole != nil && f.TeamRole.AtLeast(min)
}

func shareIs(f models.AccessFacts, p models.SharePermission) bool {
	return f.SharePermission != nil && *f.SharePermission == p
}

// CanView: owner, any team role, or any share.
func CanView(f models.AccessFacts) bool {
	return f.IsOwner || f.TeamRole != nil && f.TeamRole.Valid() || f.SharePermission != nil && f.SharePermission.Valid()
}

// CanEdit: owner, team Member or above, or an Edit share. A team Viewer may
// view but not edit.
func CanEdit(f models.AccessFacts) bool {
	return f.IsOwner || teamRoleAtLeast(f, models.RoleMember) || shareIs(f, models.SharePermissionEdit)
}

// CanDelete: owner or team Admin and above. Shares never grant delete.
func CanDelete(f models.AccessFacts) bool {
	return f.IsOwner || teamRoleAtLeast(f, models.RoleAdmin)
}

// CanShare: owner or team Admin and above. Shares never grant share.
func CanShare(f models.AccessFacts) bool {
	return f.IsOwner || teamRoleAtLeast(f, models.RoleAdmin)
}

// Evaluate derives every capability from f.
func Evaluate(f models.AccessFacts) Capabilities {
	if f.IsOwner {
		return Capabilities{View: true, Edit: true, Delete: true, Share: true}
	}
	return Capabilities{
		View:   CanView(f),
		Edit:   CanEdit(f),
		Delete: CanDelete(f),
		Share:  CanShare(f),
	}
}

// evaluateCapability answers a single capability and names the source that
// granted it. Owner short-circuits; team role is reported ahead of share when
// both would grant.
func evaluateCapability(f models.AccessFacts, c Capability) Decision {
	if f.IsOwner {
		return granted(ReasonOwner)
	}

	var byTeam, byShare bool
	switch c {
	case CapabilityView:
		byTeam = f.TeamRole != nil && f.TeamRole.Valid()
		byShare = f.SharePermission != nil && f.SharePermission.Valid()
	case CapabilityEdit:
		byTeam = teamRoleAtLeast(f, models.RoleMember)
		byShare = shareIs(f, models.SharePermissionEdit)
	case CapabilityDelete, CapabilityShare:
		byTeam = teamRoleAtLeast(f, models.RoleAdmin)
	}

	switch {
	case byTeam:
		return granted(ReasonTeamRole)
	case byShare:
		return granted(ReasonShare)
	case CanView(f):
		// The caller already knows the task exists.
		return denied(ReasonInsufficientCapability)
	default:
		return denied(ReasonNoAccess)
	}
}

// PermissionDecisionEngine turns access facts into capability decisions and
// reports each decision to an AuditSink. It performs no lookups.
type PermissionDecisionEngine struct {
	sink   AuditSink
	logger *zap.Logger
	now    func() time.Time
}

// NewPermissionDecisionEngine creates an engine. sink may be nil.
func NewPermissionDecisionEngine(sink AuditSink, logger *zap.Logger) *PermissionDecisionEngine {
	return &PermissionDecisionEngine{
		sink:   sink,
		logger: logger.Named("authz"),
		now:    time.Now,
	}
}

// Decide answers whether facts grant capability on taskID and emits one
// decision event. It never fails.
func (e *PermissionDecisionEngine) Decide(ctx context.Context, actingUserID, taskID uuid.UUID, capability Capability, facts models.AccessFacts) Decision {
	var d Decision
	if capability.Valid() {
		d = evaluateCapability(facts, capability)
	} else {
		d = denied(ReasonInsufficientCapability)
		if !CanView(facts) {
			d = denied(ReasonNoAccess)
		}
	}
	d.Facts = facts

	e.emit(ctx, &models.DecisionEvent{
		ActingUserID: actingUserID,
		Scope:        models.DecisionScopeTask,
		ResourceID:   taskID,
		Check:        string(capability),
		Granted:      d.Granted,
		Reason:       string(d.Reason),
		Facts:        &facts,
	})

	return d
}

// DecideNotFound records a check against a task that does not exist.
func (e *PermissionDecisionEngine) DecideNotFound(ctx context.Context, actingUserID, taskID uuid.UUID, capability Capability) Decision {
	d := denied(ReasonNotFound)
	e.emit(ctx, &models.DecisionEvent{
		ActingUserID: actingUserID,
		Scope:        models.DecisionScopeTask,
		ResourceID:   taskID,
		Check:        string(capability),
		Granted:      false,
		Reason:       string(d.Reason),
	})
	return d
}

// emit hands the event to the sink. Errors and panics from the sink are
// logged and dropped.
func (e *PermissionDecisionEngine) emit(ctx context.Context, event *models.DecisionEvent) {
	if e.sink == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now().UTC()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Audit sink panicked",
				zap.String("scope", event.Scope),
				zap.String("resource_id", event.ResourceID.String()),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := e.sink.Record(ctx, event); err != nil {
		e.logger.Warn("Failed to record authorization decision",
			zap.String("scope", event.Scope),
			zap.String("resource_id", event.ResourceID.String()),
			zap.String("acting_user_id", event.ActingUserID.String()),
			zap.String("check", event.Check),
			zap.Bool("granted", event.Granted),
			zap.Error(err))
	}
}
