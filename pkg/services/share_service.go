package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/repositories"
)

// ShareService manages direct task shares.
type ShareService interface {
	// Share grants userID access to the task, or changes the permission of
	// an existing share.
	Share(ctx context.Context, taskID, userID uuid.UUID, permission models.SharePermission) (*models.TaskShare, error)
	Revoke(ctx context.Context, taskID, userID uuid.UUID) error
	List(ctx context.Context, taskID uuid.UUID) ([]*models.TaskShare, error)
	// SharedWithMe lists shares granted to the caller.
	SharedWithMe(ctx context.Context) ([]*models.TaskShare, error)
}

type shareService struct {
	shareRepo repositories.TaskShareRepository
	checker   AccessChecker
	logger    *zap.Logger
}

// NewShareService creates a new share service.
func NewShareService(shareRepo repositories.TaskShareRepository, checker AccessChecker, logger *zap.Logger) ShareService {
	return &shareService{
		shareRepo: shareRepo,
		checker:   checker,
		logger:    logger.Named("share-service"),
	}
}

var _ ShareService = (*shareService)(nil)

func (s *shareService) Share(ctx context.Context, taskID, userID uuid.UUID, permission models.SharePermission) (*models.TaskShare, error) {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !permission.Valid() {
		return nil, invalidInput("unknown share permission %q", permission)
	}
	if userID == uuid.Nil {
		return nil, invalidInput("user to share with is required")
	}

	task, err := authorizeTask(ctx, s.checker, actingUserID, taskID, authz.CapabilityShare)
	if err != nil {
		return nil, err
	}

	if userID == actingUserID {
		return nil, invalidInput("cannot share a task with yourself")
	}
	if userID == task.OwnerID {
		return nil, invalidInput("the task owner already has full access")
	}

	share := &models.TaskShare{
		TaskID:           taskID,
		SharedWithUserID: userID,
		SharedByUserID:   actingUserID,
		Permission:       permission,
	}
	if err := s.shareRepo.Upsert(ctx, share); err != nil {
		return nil, err
	}

	s.logger.Info("Shared task",
		zap.String("task_id", taskID.String()),
		zap.String("shared_with", userID.String()),
		zap.String("shared_by", actingUserID.String()),
		zap.String("permission", permission.String()))

	return share, nil
}

// Revoke removes a share. It needs the same share capability as granting.
func (s *shareService) Revoke(ctx context.Context, taskID, userID uuid.UUID) error {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := authorizeTask(ctx, s.checker, actingUserID, taskID, authz.CapabilityShare); err != nil {
		return err
	}

	if err := s.shareRepo.Revoke(ctx, taskID, userID); err != nil {
		return err
	}

	s.logger.Info("Revoked task share",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", userID.String()),
		zap.String("revoked_by", actingUserID.String()))

	return nil
}

func (s *shareService) List(ctx context.Context, taskID uuid.UUID) ([]*models.TaskShare, error) {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := authorizeTask(ctx, s.checker, actingUserID, taskID, authz.CapabilityView); err != nil {
		return nil, err
	}

	shares, err := s.shareRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if shares == nil {
		shares = []*models.TaskShare{}
	}
	return shares, nil
}

func (s *shareService) SharedWithMe(ctx context.Context) ([]*models.TaskShare, error) {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	shares, err := s.shareRepo.ListSharedWithUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if shares == nil {
		shares = []*models.TaskShare{}
	}
	return shares, nil
}
