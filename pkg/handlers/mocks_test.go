package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/services"
)

// mockTaskService records the last input it was given.
type mockTaskService struct {
	task        *models.Task
	tasks       []*models.Task
	permissions *services.TaskPermissions
	err         error

	createInput *services.CreateTaskInput
	updateInput *services.UpdateTaskInput
	filter      models.TaskFilter
	deletedID   uuid.UUID
}

func (m *mockTaskService) Create(ctx context.Context, input *services.CreateTaskInput) (*models.Task, error) {
	m.createInput = input
	return m.task, m.err
}

func (m *mockTaskService) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	return m.task, m.err
}

func (m *mockTaskService) Update(ctx context.Context, taskID uuid.UUID, input *services.UpdateTaskInput) (*models.Task, error) {
	m.updateInput = input
	return m.task, m.err
}

func (m *mockTaskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	m.deletedID = taskID
	return m.err
}

func (m *mockTaskService) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	m.filter = filter
	return m.tasks, m.err
}

func (m *mockTaskService) Permissions(ctx context.Context, taskID uuid.UUID) (*services.TaskPermissions, error) {
	return m.permissions, m.err
}

type mockShareService struct {
	share  *models.TaskShare
	shares []*models.TaskShare
	err    error

	sharedWith uuid.UUID
	permission models.SharePermission
	revoked    uuid.UUID
}

func (m *mockShareService) Share(ctx context.Context, taskID, userID uuid.UUID, permission models.SharePermission) (*models.TaskShare, error) {
	m.sharedWith = userID
	m.permission = permission
	return m.share, m.err
}

func (m *mockShareService) Revoke(ctx context.Context, taskID, userID uuid.UUID) error {
	m.revoked = userID
	return m.err
}

func (m *mockShareService) List(ctx context.Context, taskID uuid.UUID) ([]*models.TaskShare, error) {
	return m.shares, m.err
}

func (m *mockShareService) SharedWithMe(ctx context.Context) ([]*models.TaskShare, error) {
	return m.shares, m.err
}

type mockTeamService struct {
	team       *models.Team
	teamRole   *models.TeamWithRole
	teams      []*models.TeamWithRole
	membership *models.TeamMembership
	members    []*models.TeamMembership
	err        error

	invitedRole models.Role
	changedRole models.Role
	newOwnerID  uuid.UUID
}

func (m *mockTeamService) Create(ctx context.Context, name, description string) (*models.Team, error) {
	return m.team, m.err
}

func (m *mockTeamService) Get(ctx context.Context, teamID uuid.UUID) (*models.TeamWithRole, error) {
	return m.teamRole, m.err
}

func (m *mockTeamService) List(ctx context.Context) ([]*models.TeamWithRole, error) {
	return m.teams, m.err
}

func (m *mockTeamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMembership, error) {
	return m.members, m.err
}

func (m *mockTeamService) Invite(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	m.invitedRole = role
	return m.membership, m.err
}

func (m *mockTeamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	return m.err
}

func (m *mockTeamService) ChangeRole(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	m.changedRole = role
	return m.membership, m.err
}

func (m *mockTeamService) TransferOwnership(ctx context.Context, teamID, newOwnerID uuid.UUID) error {
	m.newOwnerID = newOwnerID
	return m.err
}

func (m *mockTeamService) Delete(ctx context.Context, teamID uuid.UUID) error {
	return m.err
}

func (m *mockTeamService) Leave(ctx context.Context, teamID uuid.UUID) error {
	return m.err
}

var (
	_ services.TaskService  = (*mockTaskService)(nil)
	_ services.ShareService = (*mockShareService)(nil)
	_ services.TeamService  = (*mockTeamService)(nil)
)

// newRequest builds an authenticated request. pathValues are name/value pairs.
func newRequest(method, target, body string, pathValues ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}

	claims := &auth.Claims{}
	claims.Subject = uuid.New().String()
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}
