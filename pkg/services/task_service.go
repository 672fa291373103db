package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/repositories"
)

const maxTitleLength = 255

// CreateTaskInput holds the fields for a new task. A nil TeamID creates a
// personal task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	TeamID      *uuid.UUID
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
// SetTeam with a nil TeamID turns the task into a personal task.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	SetTeam      bool
	TeamID       *uuid.UUID
}

// TaskPermissions is what the caller may do with one task.
type TaskPermissions struct {
	TaskID uuid.UUID `json:"task_id"`
	authz.Capabilities
	Facts models.AccessFacts `json:"facts"`
}

// TaskService defines task operations. The acting user is always taken from
// the request context.
type TaskService interface {
	Create(ctx context.Context, input *CreateTaskInput) (*models.Task, error)
	Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, taskID uuid.UUID, input *UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, taskID uuid.UUID) error
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Permissions(ctx context.Context, taskID uuid.UUID) (*TaskPermissions, error)
}

type taskService struct {
	taskRepo repositories.TaskRepository
	members  MembershipLookup
	checker  AccessChecker
	logger   *zap.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(taskRepo repositories.TaskRepository, members MembershipLookup, checker AccessChecker, logger *zap.Logger) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		members:  members,
		checker:  checker,
		logger:   logger.Named("task-service"),
	}
}

var _ TaskService = (*taskService)(nil)

func (s *taskService) Create(ctx context.Context, input *CreateTaskInput) (*models.Task, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		OwnerID:     userID,
		TeamID:      input.TeamID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if task.TeamID != nil {
		if err := requireContributor(ctx, s.members, *task.TeamID, userID); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Debug("Created task",
		zap.String("task_id", task.ID.String()),
		zap.String("owner_id", userID.String()),
		zap.Bool("personal", task.IsPersonal()))

	return task, nil
}

func (s *taskService) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return authorizeTask(ctx, s.checker, userID, taskID, authz.CapabilityView)
}

// Update applies a partial update. Moving a task between teams, or out of
// one, also needs the share capability and a non-Viewer membership in the
// destination team.
func (s *taskService) Update(ctx context.Context, taskID uuid.UUID, input *UpdateTaskInput) (*models.Task, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	task, err := authorizeTask(ctx, s.checker, userID, taskID, authz.CapabilityEdit)
	if err != nil {
		return nil, err
	}

	if input.SetTeam && !sameTeam(task.TeamID, input.TeamID) {
		if _, err := authorizeTask(ctx, s.checker, userID, taskID, authz.CapabilityShare); err != nil {
			return nil, err
		}
		if input.TeamID != nil {
			if err := requireContributor(ctx, s.members, *input.TeamID, userID); err != nil {
				return nil, err
			}
		}
		task.TeamID = input.TeamID
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := authorizeTask(ctx, s.checker, userID, taskID, authz.CapabilityDelete); err != nil {
		return err
	}

	return s.taskRepo.Delete(ctx, taskID)
}

// List returns tasks the caller owns, sees through a team, or has been shared.
func (s *taskService) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Status != "" && !models.IsValidTaskStatus(filter.Status) {
		return nil, invalidInput("unknown status %q", filter.Status)
	}

	tasks, err := s.taskRepo.ListAccessible(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

func (s *taskService) Permissions(ctx context.Context, taskID uuid.UUID) (*TaskPermissions, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	_, caps, d, err := s.checker.TaskCapabilities(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to check task access: %w", err)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}

	return &TaskPermissions{TaskID: taskID, Capabilities: caps, Facts: d.Facts}, nil
}

func validateTask(task *models.Task) error {
	if task.Title == "" {
		return invalidInput("title is required")
	}
	if len(task.Title) > maxTitleLength {
		return invalidInput("title must be at most %d characters", maxTitleLength)
	}
	if !models.IsValidTaskStatus(task.Status) {
		return invalidInput("unknown status %q", task.Status)
	}
	if !models.IsValidTaskPriority(task.Priority) {
		return invalidInput("unknown priority %q", task.Priority)
	}
	return nil
}

func sameTeam(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
