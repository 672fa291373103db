package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/database"
	"github.com/muskanBP/todo-app/pkg/models"
)

// defaultTaskListLimit caps listings when the filter sets no limit.
const defaultTaskListLimit = 100

// TaskRepository defines data access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	// FindTask returns apperrors.ErrTaskNotFound when the task does not exist.
	FindTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	// ListAccessible returns tasks the user owns, can see through a team
	// membership, or has been shared, newest first.
	ListAccessible(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
	// Update writes every mutable field. The owner is never changed.
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, taskID uuid.UUID) error
}

type taskRepository struct{}

// NewTaskRepository creates a new task repository.
func NewTaskRepository() TaskRepository {
	return &taskRepository{}
}

var _ TaskRepository = (*taskRepository)(nil)

const taskColumns = `t.id, t.owner_id, t.team_id, t.title, t.description, t.status, t.priority,
	t.due_date, t.created_at, t.updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.TeamID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	query := `
		INSERT INTO tasks (id, owner_id, team_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.TeamID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *taskRepository) FindTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	task, err := scanTask(scope.Conn.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) ListAccessible(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultTaskListLimit {
		limit = defaultTaskListLimit
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		WHERE (
			t.owner_id = $1
			OR EXISTS (
				SELECT 1 FROM team_memberships m
				WHERE m.team_id = t.team_id AND m.user_id = $1
			)
			OR EXISTS (
				SELECT 1 FROM task_shares s
				WHERE s.task_id = t.id AND s.shared_with_user_id = $1
			)
		)
		AND ($2::text = '' OR t.status = $2)
		AND ($3::text = '' OR t.title ILIKE $3 ESCAPE '\' OR t.description ILIKE $3 ESCAPE '\')
		AND ($4::uuid IS NULL OR t.team_id = $4)
		ORDER BY t.created_at DESC, t.id
		LIMIT $5`

	rows, err := scope.Conn.Query(ctx, query,
		userID,
		filter.Status,
		containsPattern(filter.Search),
		filter.TeamID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		UPDATE tasks
		SET team_id = $2, title = $3, description = $4, status = $5, priority = $6, due_date = $7
		WHERE id = $1
		RETURNING owner_id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		task.ID,
		task.TeamID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
	).Scan(&task.OwnerID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, taskID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}

	return nil
}

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters escaped. Empty input disables the filter.
func containsPattern(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(s) + "%"
}
