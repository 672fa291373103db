package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/repositories"
)

// ScopeProvider hands out a context carrying its own database connection.
// Decisions are written after the request that produced them may have
// released its connection, so the sink never reuses the caller's scope.
type ScopeProvider interface {
	WithScope(ctx context.Context, userID uuid.UUID) (context.Context, func(), error)
}

// RepositorySink persists decisions to the authz_decisions table.
type RepositorySink struct {
	repo   repositories.AuditRepository
	scopes ScopeProvider
}

// NewRepositorySink creates a sink backed by repo.
func NewRepositorySink(repo repositories.AuditRepository, scopes ScopeProvider) *RepositorySink {
	return &RepositorySink{repo: repo, scopes: scopes}
}

// Record implements authz.AuditSink.
func (s *RepositorySink) Record(ctx context.Context, event *models.DecisionEvent) error {
	scoped, cleanup, err := s.scopes.WithScope(ctx, event.ActingUserID)
	if err != nil {
		return fmt.Errorf("acquire audit connection: %w", err)
	}
	defer cleanup()

	return s.repo.Create(scoped, event)
}

var _ authz.AuditSink = (*RepositorySink)(nil)
