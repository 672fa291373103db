package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskShare is a direct grant of one task to one user. At most one share
// exists per (TaskID, SharedWithUserID); sharing again updates Permission.
type TaskShare struct {
	ID               uuid.UUID       `json:"id"`
	TaskID           uuid.UUID       `json:"task_id"`
	SharedWithUserID uuid.UUID       `json:"shared_with_user_id"`
	SharedByUserID   uuid.UUID       `json:"shared_by_user_id"`
	Permission       SharePermission `json:"permission"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
