package models

import (
	"time"

	"github.com/google/uuid"
)

// Task status values.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task priority values.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// ValidTaskStatuses contains all valid status values.
var ValidTaskStatuses = []string{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

// ValidTaskPriorities contains all valid priority values.
var ValidTaskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}

// Task is a to-do item. OwnerID is set at creation and never changes.
// A nil TeamID marks a personal task.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPersonal reports whether the task belongs to no team.
func (t *Task) IsPersonal() bool {
	return t.TeamID == nil
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status string
	Search string
	TeamID *uuid.UUID
	Limit  int
}

// IsValidTaskStatus checks if the given status is valid.
func IsValidTaskStatus(status string) bool {
	for _, s := range ValidTaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidTaskPriority checks if the given priority is valid.
func IsValidTaskPriority(priority string) bool {
	for _, p := range ValidTaskPriorities {
		if p == priority {
			return true
		}
	}
	return false
}
