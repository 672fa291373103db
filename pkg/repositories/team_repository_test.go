//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

func ownerCount(t *testing.T, tc *repoTestContext, teamID uuid.UUID) int {
	t.Helper()
	var n int
	err := tc.db.DB.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM team_memberships WHERE team_id = $1 AND role = 'owner'`, teamID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestTeamRepository_CreateWithOwner(t *testing.T) {
	tc := setupRepoTest(t)
	alice := uuid.New()
	team := tc.createTeam(alice, nil)

	m, err := tc.teams.FindTeamMembership(tc.ctx(alice), team.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.RoleOwner, m.Role)
	assert.Equal(t, 1, ownerCount(t, tc, team.ID))

	got, err := tc.teams.FindTeam(tc.ctx(alice), team.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got.CreatedBy)
}

func TestTeamRepository_FindMissing(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := tc.ctx(uuid.New())

	_, err := tc.teams.FindTeam(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrTeamNotFound)

	m, err := tc.teams.FindTeamMembership(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestTeamRepository_AddMember(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob := uuid.New(), uuid.New()
	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleMember})
	ctx := tc.ctx(alice)

	_, err := tc.teams.AddMember(ctx, team.ID, bob, models.RoleViewer)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = tc.teams.AddMember(ctx, team.ID, uuid.New(), models.RoleOwner)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, err = tc.teams.AddMember(ctx, uuid.New(), uuid.New(), models.RoleMember)
	assert.ErrorIs(t, err, apperrors.ErrTeamNotFound)

	members, err := tc.teams.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, models.RoleOwner, members[0].Role)
}

func TestTeamRepository_UpdateMemberRoleProtectsOwner(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob := uuid.New(), uuid.New()
	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleMember})
	ctx := tc.ctx(alice)

	m, err := tc.teams.UpdateMemberRole(ctx, team.ID, bob, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)

	_, err = tc.teams.UpdateMemberRole(ctx, team.ID, alice, models.RoleMember)
	assert.ErrorIs(t, err, apperrors.ErrLastOwner)

	_, err = tc.teams.UpdateMemberRole(ctx, team.ID, bob, models.RoleOwner)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, err = tc.teams.UpdateMemberRole(ctx, team.ID, uuid.New(), models.RoleViewer)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamRepository_RemoveMember(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob := uuid.New(), uuid.New()
	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleViewer})
	ctx := tc.ctx(alice)

	assert.ErrorIs(t, tc.teams.RemoveMember(ctx, team.ID, alice), apperrors.ErrLastOwner)
	require.NoError(t, tc.teams.RemoveMember(ctx, team.ID, bob))
	assert.ErrorIs(t, tc.teams.RemoveMember(ctx, team.ID, bob), apperrors.ErrNotFound)
	assert.Equal(t, 1, ownerCount(t, tc, team.ID))
}

func TestTeamRepository_TransferOwnership(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob := uuid.New(), uuid.New()
	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleMember})
	ctx := tc.ctx(alice)

	require.NoError(t, tc.teams.TransferOwnership(ctx, team.ID, alice, bob))

	newOwner, err := tc.teams.FindTeamMembership(ctx, team.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, newOwner.Role)
	oldOwner, err := tc.teams.FindTeamMembership(ctx, team.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, oldOwner.Role)
	assert.Equal(t, 1, ownerCount(t, tc, team.ID))

	// Alice is no longer the owner.
	err = tc.teams.TransferOwnership(ctx, team.ID, alice, bob)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = tc.teams.TransferOwnership(ctx, team.ID, bob, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, ownerCount(t, tc, team.ID))
}

func TestTeamRepository_DeleteDetachesTasks(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob, dave := uuid.New(), uuid.New(), uuid.New()
	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleMember})
	task := tc.createTask(bob, &team.ID, "team task")
	require.NoError(t, tc.shares.Upsert(tc.ctx(bob), &models.TaskShare{
		TaskID: task.ID, SharedWithUserID: dave, SharedByUserID: bob, Permission: models.SharePermissionEdit,
	}))

	require.NoError(t, tc.teams.Delete(tc.ctx(alice), team.ID))

	got, err := tc.tasks.FindTask(tc.ctx(bob), task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TeamID)
	assert.Equal(t, bob, got.OwnerID)

	share, err := tc.shares.FindTaskShare(tc.ctx(bob), task.ID, dave)
	require.NoError(t, err)
	assert.Nil(t, share)

	_, err = tc.teams.FindTeam(tc.ctx(alice), team.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeamNotFound)
	assert.ErrorIs(t, tc.teams.Delete(tc.ctx(alice), team.ID), apperrors.ErrTeamNotFound)
}

func TestTeamRepository_ListForUser(t *testing.T) {
	tc := setupRepoTest(t)
	alice, bob := uuid.New(), uuid.New()
	team := tc.createTeam(alice, map[uuid.UUID]models.Role{bob: models.RoleViewer})
	tc.createTeam(alice, nil)

	teams, err := tc.teams.ListForUser(tc.ctx(bob), bob)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team.ID, teams[0].ID)
	assert.Equal(t, models.RoleViewer, teams[0].Role)
	assert.Equal(t, 2, teams[0].MemberCount)
}
