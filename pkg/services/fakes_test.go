package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/repositories"
)

// memRepo implements the task, team and share repositories in memory so
// services run against the real authz.Checker.
type memRepo struct {
	tasks       map[uuid.UUID]*models.Task
	teams       map[uuid.UUID]*models.Team
	memberships map[[2]uuid.UUID]*models.TeamMembership
	shares      map[[2]uuid.UUID]*models.TaskShare

	updateErr error
	listErr   error

	capturedFilter models.TaskFilter
}

func newMemRepo() *memRepo {
	return &memRepo{
		tasks:       make(map[uuid.UUID]*models.Task),
		teams:       make(map[uuid.UUID]*models.Team),
		memberships: make(map[[2]uuid.UUID]*models.TeamMembership),
		shares:      make(map[[2]uuid.UUID]*models.TaskShare),
	}
}

var (
	_ repositories.TaskRepository      = (*memRepo)(nil)
	_ repositories.TaskShareRepository = (*memRepo)(nil)
)

func (m *memRepo) addTeam(members map[uuid.UUID]models.Role) uuid.UUID {
	teamID := uuid.New()
	m.teams[teamID] = &models.Team{ID: teamID, Name: "team"}
	for userID, role := range members {
		m.memberships[[2]uuid.UUID{teamID, userID}] = &models.TeamMembership{TeamID: teamID, UserID: userID, Role: role}
	}
	return teamID
}

func (m *memRepo) addTask(owner uuid.UUID, teamID *uuid.UUID) *models.Task {
	t := &models.Task{
		ID:       uuid.New(),
		OwnerID:  owner,
		TeamID:   teamID,
		Title:    "task",
		Status:   models.TaskStatusPending,
		Priority: models.TaskPriorityMedium,
	}
	m.tasks[t.ID] = t
	return t
}

func (m *memRepo) share(taskID, userID uuid.UUID, perm models.SharePermission) {
	m.shares[[2]uuid.UUID{taskID, userID}] = &models.TaskShare{ID: uuid.New(), TaskID: taskID, SharedWithUserID: userID, Permission: perm}
}

// Task repository.

func (m *memRepo) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *memRepo) FindTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, apperrors.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *memRepo) ListAccessible(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	m.capturedFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Task
	for _, t := range m.tasks {
		_, shared := m.shares[[2]uuid.UUID{t.ID, userID}]
		member := false
		if t.TeamID != nil {
			_, member = m.memberships[[2]uuid.UUID{*t.TeamID, userID}]
		}
		if t.OwnerID == userID || shared || member {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) Update(ctx context.Context, task *models.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.tasks[task.ID]
	if !ok {
		return apperrors.ErrTaskNotFound
	}
	task.OwnerID = existing.OwnerID
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *memRepo) Delete(ctx context.Context, taskID uuid.UUID) error {
	if _, ok := m.tasks[taskID]; !ok {
		return apperrors.ErrTaskNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

// Share repository.

func (m *memRepo) FindTaskShare(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskShare, error) {
	return m.shares[[2]uuid.UUID{taskID, userID}], nil
}

func (m *memRepo) Upsert(ctx context.Context, share *models.TaskShare) error {
	key := [2]uuid.UUID{share.TaskID, share.SharedWithUserID}
	if existing, ok := m.shares[key]; ok {
		share.ID = existing.ID
	} else {
		share.ID = uuid.New()
	}
	copied := *share
	m.shares[key] = &copied
	return nil
}

func (m *memRepo) Revoke(ctx context.Context, taskID, userID uuid.UUID) error {
	key := [2]uuid.UUID{taskID, userID}
	if _, ok := m.shares[key]; !ok {
		return fmt.Errorf("task share %w", apperrors.ErrNotFound)
	}
	delete(m.shares, key)
	return nil
}

func (m *memRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskShare, error) {
	var out []*models.TaskShare
	for key, s := range m.shares {
		if key[0] == taskID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) ListSharedWithUser(ctx context.Context, userID uuid.UUID) ([]*models.TaskShare, error) {
	var out []*models.TaskShare
	for key, s := range m.shares {
		if key[1] == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Team repository, shared by lookups in both the checker and the services.

func (m *memRepo) FindTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	t, ok := m.teams[teamID]
	if !ok {
		return nil, apperrors.ErrTeamNotFound
	}
	return t, nil
}

func (m *memRepo) FindTeamMembership(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMembership, error) {
	return m.memberships[[2]uuid.UUID{teamID, userID}], nil
}

// memTeamRepo exposes memRepo as a repositories.TeamRepository. TaskRepository
// and TeamRepository both declare Delete, so they cannot share one type.
type memTeamRepo struct {
	*memRepo
	transferErr error
}

var _ repositories.TeamRepository = (*memTeamRepo)(nil)

func (r *memTeamRepo) CreateWithOwner(ctx context.Context, team *models.Team, ownerID uuid.UUID) error {
	team.ID = uuid.New()
	r.teams[team.ID] = team
	r.memberships[[2]uuid.UUID{team.ID, ownerID}] = &models.TeamMembership{TeamID: team.ID, UserID: ownerID, Role: models.RoleOwner}
	return nil
}

func (r *memTeamRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.TeamWithRole, error) {
	var out []*models.TeamWithRole
	for key, m := range r.memberships {
		if key[1] == userID {
			out = append(out, &models.TeamWithRole{Team: *r.teams[key[0]], Role: m.Role})
		}
	}
	return out, nil
}

func (r *memTeamRepo) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMembership, error) {
	var out []*models.TeamMembership
	for key, m := range r.memberships {
		if key[0] == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memTeamRepo) AddMember(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	key := [2]uuid.UUID{teamID, userID}
	if _, ok := r.memberships[key]; ok {
		return nil, apperrors.ErrConflict
	}
	m := &models.TeamMembership{TeamID: teamID, UserID: userID, Role: role}
	r.memberships[key] = m
	return m, nil
}

func (r *memTeamRepo) UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	m, ok := r.memberships[[2]uuid.UUID{teamID, userID}]
	if !ok || m.Role == models.RoleOwner {
		return nil, fmt.Errorf("team member %w", apperrors.ErrNotFound)
	}
	m.Role = role
	return m, nil
}

func (r *memTeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	key := [2]uuid.UUID{teamID, userID}
	m, ok := r.memberships[key]
	if !ok {
		return fmt.Errorf("team member %w", apperrors.ErrNotFound)
	}
	if m.Role == models.RoleOwner {
		return apperrors.ErrLastOwner
	}
	delete(r.memberships, key)
	return nil
}

func (r *memTeamRepo) TransferOwnership(ctx context.Context, teamID, currentOwnerID, newOwnerID uuid.UUID) error {
	if r.transferErr != nil {
		return r.transferErr
	}
	r.memberships[[2]uuid.UUID{teamID, currentOwnerID}].Role = models.RoleAdmin
	r.memberships[[2]uuid.UUID{teamID, newOwnerID}].Role = models.RoleOwner
	return nil
}

func (r *memTeamRepo) Delete(ctx context.Context, teamID uuid.UUID) error {
	delete(r.teams, teamID)
	for key := range r.memberships {
		if key[0] == teamID {
			delete(r.memberships, key)
		}
	}
	for _, t := range r.tasks {
		if t.TeamID != nil && *t.TeamID == teamID {
			t.TeamID = nil
		}
	}
	return nil
}

// recordingSink captures decision events emitted by the checker.
type recordingSink struct {
	events []*models.DecisionEvent
}

func (s *recordingSink) Record(ctx context.Context, event *models.DecisionEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newChecker(repo *memRepo, sink authz.AuditSink) *authz.Checker {
	engine := authz.NewPermissionDecisionEngine(sink, zap.NewNop())
	return authz.NewChecker(
		authz.NewAccessGrantResolver(repo, repo, repo),
		engine,
		authz.NewTeamRoleAuthorizer(repo, engine),
		repo,
		zap.NewNop(),
	)
}

// asUser returns a context authenticated as userID.
func asUser(t *testing.T, userID uuid.UUID) context.Context {
	t.Helper()
	claims := &auth.Claims{}
	claims.Subject = userID.String()
	return auth.WithClaims(context.Background(), claims)
}

func ptr[T any](v T) *T { return &v }
