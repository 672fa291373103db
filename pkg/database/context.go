package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

// ScopeKey is the context key for the request's database scope.
const ScopeKey contextKey = "dbScope"

// ErrNoScope is returned by repositories called without a scope in context.
var ErrNoScope = errors.New("no database scope in context")

// GetScope retrieves the database scope from context.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil
}

// SetScope stores the database scope in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// ScopeProvider opens scopes outside the request lifecycle.
type ScopeProvider struct {
	db *DB
}

// NewScopeProvider creates a ScopeProvider for db.
func NewScopeProvider(db *DB) *ScopeProvider {
	return &ScopeProvider{db: db}
}

// WithScope returns a context holding a fresh scope for userID. The cleanup
// function must be called when the scope is no longer needed.
func (p *ScopeProvider) WithScope(ctx context.Context, userID uuid.UUID) (context.Context, func(), error) {
	scope, err := p.db.WithUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return SetScope(ctx, scope), scope.Close, nil
}
