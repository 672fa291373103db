package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision scopes.
const (
	DecisionScopeTask = "task"
	DecisionScopeTeam = "team"
)

// DecisionEvent records one authorization decision.
// Stored in authz_decisions and published to the audit stream.
type DecisionEvent struct {
	ID           uuid.UUID    `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	ActingUserID uuid.UUID    `json:"acting_user_id"`
	Scope        string       `json:"scope"`       // 'task', 'team'
	ResourceID   uuid.UUID    `json:"resource_id"` // task or team ID
	Check        string       `json:"check"`       // capability or team action
	TargetUserID *uuid.UUID   `json:"target_user_id,omitempty"`
	Granted      bool         `json:"granted"`
	Reason       string       `json:"reason"`
	Facts        *AccessFacts `json:"facts,omitempty"`
	ActingRole   *Role        `json:"acting_role,omitempty"`
}
