package authz

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/models"
)

// memStore is an in-memory implementation of every finder used by the
// package. It counts lookups so tests can assert the resolver's I/O budget.
type memStore struct {
	tasks       map[uuid.UUID]*models.Task
	teams       map[uuid.UUID]*models.Team
	memberships map[[2]uuid.UUID]*models.TeamMembership
	shares      map[[2]uuid.UUID]*models.TaskShare

	memberErr error
	shareErr  error

	taskLookups   int
	memberLookups int
	shareLookups  int
}

func newMemStore() *memStore {
	return &memStore{
		tasks:       make(map[uuid.UUID]*models.Task),
		teams:       make(map[uuid.UUID]*models.Team),
		memberships: make(map[[2]uuid.UUID]*models.TeamMembership),
		shares:      make(map[[2]uuid.UUID]*models.TaskShare),
	}
}

func (s *memStore) addTask(owner uuid.UUID, teamID *uuid.UUID) *models.Task {
	t := &models.Task{ID: uuid.New(), OwnerID: owner, TeamID: teamID, Title: "task"}
	s.tasks[t.ID] = t
	return t
}

func (s *memStore) addTeam(members map[uuid.UUID]models.Role) uuid.UUID {
	teamID := uuid.New()
	s.teams[teamID] = &models.Team{ID: teamID, Name: "team"}
	for userID, role := range members {
		s.memberships[[2]uuid.UUID{teamID, userID}] = &models.TeamMembership{TeamID: teamID, UserID: userID, Role: role}
	}
	return teamID
}

func (s *memStore) share(taskID, userID uuid.UUID, perm models.SharePermission) {
	s.shares[[2]uuid.UUID{taskID, userID}] = &models.TaskShare{ID: uuid.New(), TaskID: taskID, SharedWithUserID: userID, Permission: perm}
}

func (s *memStore) FindTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	s.taskLookups++
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (s *memStore) FindTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	t, ok := s.teams[teamID]
	if !ok {
		return nil, apperrors.ErrTeamNotFound
	}
	return t, nil
}

func (s *memStore) FindTeamMembership(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMembership, error) {
	s.memberLookups++
	if s.memberErr != nil {
		return nil, s.memberErr
	}
	return s.memberships[[2]uuid.UUID{teamID, userID}], nil
}

func (s *memStore) FindTaskShare(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskShare, error) {
	s.shareLookups++
	if s.shareErr != nil {
		return nil, s.shareErr
	}
	return s.shares[[2]uuid.UUID{taskID, userID}], nil
}

// recordingSink captures every decision event.
type recordingSink struct {
	mu     sync.Mutex
	events []*models.DecisionEvent
	err    error
	panic  bool
}

func (s *recordingSink) Record(ctx context.Context, event *models.DecisionEvent) error {
	if s.panic {
		panic("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) last() *models.DecisionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

var errSinkDown = errors.New("audit backend unavailable")

func rolePtr(r models.Role) *models.Role { return &r }

func permPtr(p models.SharePermission) *models.SharePermission { return &p }
