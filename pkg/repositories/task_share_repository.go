package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/database"
	"github.com/muskanBP/todo-app/pkg/models"
)

// TaskShareRepository defines data access for direct task shares.
type TaskShareRepository interface {
	// FindTaskShare returns nil, nil when the user has no share on the task.
	FindTaskShare(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskShare, error)
	// Upsert creates the share or updates its permission.
	Upsert(ctx context.Context, share *models.TaskShare) error
	// Revoke returns apperrors.ErrNotFound when no share exists.
	Revoke(ctx context.Context, taskID, userID uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskShare, error)
	ListSharedWithUser(ctx context.Context, userID uuid.UUID) ([]*models.TaskShare, error)
}

type taskShareRepository struct{}

// NewTaskShareRepository creates a new task share repository.
func NewTaskShareRepository() TaskShareRepository {
	return &taskShareRepository{}
}

var _ TaskShareRepository = (*taskShareRepository)(nil)

const shareColumns = `id, task_id, shared_with_user_id, shared_by_user_id, permission, created_at, updated_at`

func scanShare(row pgx.Row) (*models.TaskShare, error) {
	var share models.TaskShare
	err := row.Scan(
		&share.ID,
		&share.TaskID,
		&share.SharedWithUserID,
		&share.SharedByUserID,
		&share.Permission,
		&share.CreatedAt,
		&share.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *taskShareRepository) FindTaskShare(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskShare, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE task_id = $1 AND shared_with_user_id = $2`

	share, err := scanShare(scope.Conn.QueryRow(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task share: %w", err)
	}

	return share, nil
}

func (r *taskShareRepository) Upsert(ctx context.Context, share *models.TaskShare) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	if share.ID == uuid.Nil {
		share.ID = uuid.New()
	}

	query := `
		INSERT INTO task_shares (id, task_id, shared_with_user_id, shared_by_user_id, permission)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (task_id, shared_with_user_id) DO UPDATE
		SET permission = EXCLUDED.permission,
		    shared_by_user_id = EXCLUDED.shared_by_user_id
		RETURNING ` + shareColumns

	saved, err := scanShare(scope.Conn.QueryRow(ctx, query,
		share.ID,
		share.TaskID,
		share.SharedWithUserID,
		share.SharedByUserID,
		share.Permission,
	))
	if err != nil {
		return fmt.Errorf("failed to save task share: %w", err)
	}

	*share = *saved
	return nil
}

func (r *taskShareRepository) Revoke(ctx context.Context, taskID, userID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx,
		`DELETE FROM task_shares WHERE task_id = $1 AND shared_with_user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke task share: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("task share %w", apperrors.ErrNotFound)
	}

	return nil
}

func (r *taskShareRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskShare, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM task_shares WHERE task_id = $1 ORDER BY created_at`, taskID)
}

func (r *taskShareRepository) ListSharedWithUser(ctx context.Context, userID uuid.UUID) ([]*models.TaskShare, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM task_shares WHERE shared_with_user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *taskShareRepository) list(ctx context.Context, query string, arg uuid.UUID) ([]*models.TaskShare, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	rows, err := scope.Conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list task shares: %w", err)
	}
	defer rows.Close()

	var shares []*models.TaskShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task share: %w", err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task shares: %w", err)
	}

	return shares, nil
}
