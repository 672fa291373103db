//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/testhelpers"
)

// repoTestContext holds shared dependencies for repository tests.
type repoTestContext struct {
	t      *testing.T
	db     *testhelpers.TestDB
	tasks  TaskRepository
	teams  TeamRepository
	shares TaskShareRepository
	audit  AuditRepository

	// one scope per user; the pool is small
	contexts map[uuid.UUID]context.Context
}

func setupRepoTest(t *testing.T) *repoTestContext {
	t.Helper()
	db := testhelpers.GetTestDB(t)
	db.Truncate(t)
	return &repoTestContext{
		t:      t,
		db:     db,
		tasks:  NewTaskRepository(),
		teams:  NewTeamRepository(),
		shares: NewTaskShareRepository(),
		audit:  NewAuditRepository(),

		contexts: make(map[uuid.UUID]context.Context),
	}
}

func (tc *repoTestContext) ctx(userID uuid.UUID) context.Context {
	if ctx, ok := tc.contexts[userID]; ok {
		return ctx
	}
	ctx := tc.db.UserContext(tc.t, userID)
	tc.contexts[userID] = ctx
	return ctx
}

func (tc *repoTestContext) createTask(ownerID uuid.UUID, teamID *uuid.UUID, title string) *models.Task {
	tc.t.Helper()
	task := &models.Task{
		OwnerID:  ownerID,
		TeamID:   teamID,
		Title:    title,
		Status:   models.TaskStatusPending,
		Priority: models.TaskPriorityMedium,
	}
	require.NoError(tc.t, tc.tasks.Create(tc.ctx(ownerID), task))
	return task
}

func (tc *repoTestContext) createTeam(ownerID uuid.UUID, members map[uuid.UUID]models.Role) *models.Team {
	tc.t.Helper()
	ctx := tc.ctx(ownerID)
	team := &models.Team{Name: "team-" + uuid.NewString()[:8]}
	require.NoError(tc.t, tc.teams.CreateWithOwner(ctx, team, ownerID))
	for userID, role := range members {
		_, err := tc.teams.AddMember(ctx, team.ID, userID, role)
		require.NoError(tc.t, err)
	}
	return team
}
