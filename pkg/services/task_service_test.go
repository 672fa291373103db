package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
)

func newTestTaskService(repo *memRepo) TaskService {
	return NewTaskService(repo, repo, newChecker(repo, nil), zap.NewNop())
}

func TestTaskService_Create_Personal(t *testing.T) {
	repo := newMemRepo()
	alice := uuid.New()
	service := newTestTaskService(repo)

	task, err := service.Create(asUser(t, alice), &CreateTaskInput{Title: "  Buy milk  "})
	require.NoError(t, err)

	assert.Equal(t, alice, task.OwnerID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.True(t, task.IsPersonal())
	assert.Contains(t, repo.tasks, task.ID)
}

func TestTaskService_Create_Validation(t *testing.T) {
	repo := newMemRepo()
	service := newTestTaskService(repo)
	ctx := asUser(t, uuid.New())

	tests := []struct {
		name  string
		input CreateTaskInput
	}{
		{"missing title", CreateTaskInput{Title: "   "}},
		{"unknown status", CreateTaskInput{Title: "x", Status: "blocked"}},
		{"unknown priority", CreateTaskInput{Title: "x", Priority: "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, &tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
	assert.Empty(t, repo.tasks)
}

func TestTaskService_Create_RequiresAuthenticatedUser(t *testing.T) {
	service := newTestTaskService(newMemRepo())

	_, err := service.Create(context.Background(), &CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, auth.ErrNoUser)
}

func TestTaskService_Create_TeamTaskNeedsContributor(t *testing.T) {
	repo := newMemRepo()
	alice, viewer, outsider := uuid.New(), uuid.New(), uuid.New()
	teamID := repo.addTeam(map[uuid.UUID]models.Role{alice: models.RoleOwner, viewer: models.RoleViewer})
	service := newTestTaskService(repo)

	task, err := service.Create(asUser(t, alice), &CreateTaskInput{Title: "Plan", TeamID: &teamID})
	require.NoError(t, err)
	assert.Equal(t, teamID, *task.TeamID)

	_, err = service.Create(asUser(t, viewer), &CreateTaskInput{Title: "Plan", TeamID: &teamID})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientRole)

	_, err = service.Create(asUser(t, outsider), &CreateTaskInput{Title: "Plan", TeamID: &teamID})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	var denied *apperrors.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Empty(t, denied.RequiredRole, "non-members never learn the required role")
}

func TestTaskService_Get_HidesInaccessibleTasks(t *testing.T) {
	repo := newMemRepo()
	alice, bob := uuid.New(), uuid.New()
	task := repo.addTask(alice, nil)
	service := newTestTaskService(repo)

	got, err := service.Get(asUser(t, alice), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, hiddenErr := service.Get(asUser(t, bob), task.ID)
	_, missingErr := service.Get(asUser(t, bob), uuid.New())

	assert.ErrorIs(t, hiddenErr, apperrors.ErrNotFound)
	assert.ErrorIs(t, missingErr, apperrors.ErrNotFound)
	assert.Equal(t, missingErr.Error(), hiddenErr.Error())
}

func TestTaskService_Update(t *testing.T) {
	repo := newMemRepo()
	alice, editor, viewer := uuid.New(), uuid.New(), uuid.New()
	task := repo.addTask(alice, nil)
	repo.share(task.ID, editor, models.SharePermissionEdit)
	repo.share(task.ID, viewer, models.SharePermissionView)
	service := newTestTaskService(repo)

	updated, err := service.Update(asUser(t, editor), task.ID, &UpdateTaskInput{
		Title:  ptr("Buy oat milk"),
		Status: ptr(models.TaskStatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
	assert.Equal(t, alice, updated.OwnerID, "owner never changes")

	_, err = service.Update(asUser(t, viewer), task.ID, &UpdateTaskInput{Title: ptr("nope")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = service.Update(asUser(t, editor), task.ID, &UpdateTaskInput{Priority: ptr("critical")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTaskService_Update_MoveBetweenTeams(t *testing.T) {
	repo := newMemRepo()
	alice, member := uuid.New(), uuid.New()
	source := repo.addTeam(map[uuid.UUID]models.Role{alice: models.RoleOwner, member: models.RoleMember})
	dest := repo.addTeam(map[uuid.UUID]models.Role{alice: models.RoleViewer, member: models.RoleOwner})
	task := repo.addTask(alice, &source)
	service := newTestTaskService(repo)

	// A Member can edit the task but cannot move it.
	_, err := service.Update(asUser(t, member), task.ID, &UpdateTaskInput{SetTeam: true, TeamID: &dest})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// The owner can share, but is only a Viewer in the destination.
	_, err = service.Update(asUser(t, alice), task.ID, &UpdateTaskInput{SetTeam: true, TeamID: &dest})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientRole)

	moved, err := service.Update(asUser(t, alice), task.ID, &UpdateTaskInput{SetTeam: true})
	require.NoError(t, err)
	assert.True(t, moved.IsPersonal())

	// Re-sending the current team is not a move.
	_, err = service.Update(asUser(t, alice), task.ID, &UpdateTaskInput{SetTeam: true, Title: ptr("same")})
	require.NoError(t, err)
}

func TestTaskService_Update_ClearDueDate(t *testing.T) {
	repo := newMemRepo()
	alice := uuid.New()
	task := repo.addTask(alice, nil)
	service := newTestTaskService(repo)

	_, err := service.Update(asUser(t, alice), task.ID, &UpdateTaskInput{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, repo.tasks[task.ID].DueDate)
}

func TestTaskService_Update_RepositoryError(t *testing.T) {
	repo := newMemRepo()
	alice := uuid.New()
	task := repo.addTask(alice, nil)
	repo.updateErr = errors.New("connection reset by peer")
	service := newTestTaskService(repo)

	_, err := service.Update(asUser(t, alice), task.ID, &UpdateTaskInput{Title: ptr("x")})
	assert.ErrorIs(t, err, repo.updateErr)
}

func TestTaskService_Delete(t *testing.T) {
	repo := newMemRepo()
	alice, admin, member := uuid.New(), uuid.New(), uuid.New()
	teamID := repo.addTeam(map[uuid.UUID]models.Role{alice: models.RoleOwner, admin: models.RoleAdmin, member: models.RoleMember})
	first := repo.addTask(alice, &teamID)
	second := repo.addTask(member, &teamID)
	service := newTestTaskService(repo)

	err := service.Delete(asUser(t, member), first.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Contains(t, repo.tasks, first.ID)

	require.NoError(t, service.Delete(asUser(t, admin), first.ID))
	assert.NotContains(t, repo.tasks, first.ID)

	// Owners can always delete their own tasks.
	require.NoError(t, service.Delete(asUser(t, member), second.ID))
}

func TestTaskService_List(t *testing.T) {
	repo := newMemRepo()
	alice, bob := uuid.New(), uuid.New()
	teamID := repo.addTeam(map[uuid.UUID]models.Role{alice: models.RoleOwner, bob: models.RoleViewer})
	repo.addTask(alice, nil)
	repo.addTask(alice, &teamID)
	shared := repo.addTask(alice, nil)
	repo.share(shared.ID, bob, models.SharePermissionView)
	service := newTestTaskService(repo)

	tasks, err := service.List(asUser(t, bob), models.TaskFilter{Search: "milk"})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, "milk", repo.capturedFilter.Search)

	_, err = service.List(asUser(t, bob), models.TaskFilter{Status: "archived"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	empty, err := service.List(asUser(t, uuid.New()), models.TaskFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskService_Permissions(t *testing.T) {
	repo := newMemRepo()
	alice, bob := uuid.New(), uuid.New()
	teamID := repo.addTeam(map[uuid.UUID]models.Role{alice: models.RoleOwner, bob: models.RoleMember})
	task := repo.addTask(alice, &teamID)
	repo.share(task.ID, bob, models.SharePermissionView)
	service := newTestTaskService(repo)

	perms, err := service.Permissions(asUser(t, bob), task.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.Capabilities{View: true, Edit: true}, perms.Capabilities)
	require.NotNil(t, perms.Facts.TeamRole)
	assert.Equal(t, models.RoleMember, *perms.Facts.TeamRole)
	require.NotNil(t, perms.Facts.SharePermission)

	_, err = service.Permissions(asUser(t, uuid.New()), task.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
