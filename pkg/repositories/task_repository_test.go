//go:build integration

package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

func TestTaskRepository_CreateAndFind(t *testing.T) {
	tc := setupRepoTest(t)
	alice := uuid.New()

	task := tc.createTask(alice, nil, "write report")
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.False(t, task.CreatedAt.IsZero())

	got, err := tc.tasks.FindTask(tc.ctx(alice), task.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got.OwnerID)
	assert.Nil(t, got.TeamID)
	assert.Equal(t, "write report", got.Title)
}

func TestTaskRepository_FindMissing(t *testing.T) {
	tc := setupRepoTest(t)

	_, err := tc.tasks.FindTask(tc.ctx(uuid.New()), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTaskRepository_UpdateKeepsOwner(t *testing.T) {
	tc := setupRepoTest(t)
	alice, mallory := uuid.New(), uuid.New()
	task := tc.createTask(alice, nil, "original")

	task.Title = "renamed"
	task.Status = models.TaskStatusCompleted
	task.OwnerID = mallory
	require.NoError(t, tc.tasks.Update(tc.ctx(alice), task))

	assert.Equal(t, alice, task.OwnerID, "owner is read back from the row")
	got, err := tc.tasks.FindTask(tc.ctx(alice), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, alice, got.OwnerID)
}

func TestTaskRepository_Delete(t *testing.T) {
	tc := setupRepoTest(t)
	alice := uuid.New()
	task := tc.createTask(alice, nil, "gone")

	require.NoError(t, tc.tasks.Delete(tc.ctx(alice), task.ID))
	assert.ErrorIs(t, tc.tasks.Delete(tc.ctx(alice), task.ID), apperrors.ErrTaskNotFound)
}

func TestTaskRepository_ListAccessible(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleViewer})
	own := tc.createTask(bob, nil, "bob personal")
	teamTask := tc.createTask(alice, &team.ID, "team plan")
	shared := tc.createTask(carol, nil, "carol shared")
	hidden := tc.createTask(carol, nil, "carol private")
	require.NoError(t, tc.shares.Upsert(tc.ctx(carol), &models.TaskShare{
		TaskID: shared.ID, SharedWithUserID: bob, SharedByUserID: carol, Permission: models.SharePermissionView,
	}))

	tasks, err := tc.tasks.ListAccessible(tc.ctx(bob), bob, models.TaskFilter{})
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool)
	for _, task := range tasks {
		ids[task.ID] = true
	}
	assert.True(t, ids[own.ID])
	assert.True(t, ids[teamTask.ID])
	assert.True(t, ids[shared.ID])
	assert.False(t, ids[hidden.ID])
	assert.Len(t, tasks, 3)
}

func TestTaskRepository_ListAccessibleFilters(t *testing.T) {
	tc := setupRepoTest(t)
	alice := uuid.New()
	tc.createTask(alice, nil, "buy milk")
	done := tc.createTask(alice, nil, "100% done_task")
	done.Status = models.TaskStatusCompleted
	require.NoError(t, tc.tasks.Update(tc.ctx(alice), done))

	tasks, err := tc.tasks.ListAccessible(tc.ctx(alice), alice, models.TaskFilter{Status: models.TaskStatusCompleted})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, done.ID, tasks[0].ID)

	tasks, err = tc.tasks.ListAccessible(tc.ctx(alice), alice, models.TaskFilter{Search: "MILK"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Title)

	tasks, err = tc.tasks.ListAccessible(tc.ctx(alice), alice, models.TaskFilter{Search: "%"})
	require.NoError(t, err)
	require.Len(t, tasks, 1, "LIKE wildcards are matched literally")
	assert.Equal(t, done.ID, tasks[0].ID)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "", containsPattern("  "))
	assert.Equal(t, "%milk%", containsPattern(" milk "))
	assert.Equal(t, `%50\%\_off\\%`, containsPattern(`50%_off\`))
}
