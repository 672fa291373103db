package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/muskanBP/todo-app/pkg/database"
	"github.com/muskanBP/todo-app/pkg/models"
)

// AuditRepository stores authorization decisions.
type AuditRepository interface {
	Create(ctx context.Context, event *models.DecisionEvent) error
	// ListByResource returns decisions on one task or team, newest first.
	ListByResource(ctx context.Context, scope string, resourceID uuid.UUID, limit int) ([]*models.DecisionEvent, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, event *models.DecisionEvent) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	var factsJSON []byte
	if event.Facts != nil {
		var err error
		factsJSON, err = json.Marshal(event.Facts)
		if err != nil {
			return fmt.Errorf("failed to marshal facts: %w", err)
		}
	}

	query := `
		INSERT INTO authz_decisions (
			id, decided_at, acting_user_id, scope, resource_id, check_name,
			target_user_id, granted, reason, acting_role, facts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	_, err := scope.Conn.Exec(ctx, query,
		event.ID,
		event.Timestamp,
		event.ActingUserID,
		event.Scope,
		event.ResourceID,
		event.Check,
		event.TargetUserID,
		event.Granted,
		event.Reason,
		event.ActingRole,
		factsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	return nil
}

func (r *auditRepository) ListByResource(ctx context.Context, scopeName string, resourceID uuid.UUID, limit int) ([]*models.DecisionEvent, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, decided_at, acting_user_id, scope, resource_id, check_name,
		       target_user_id, granted, reason, acting_role, facts
		FROM authz_decisions
		WHERE scope = $1 AND resource_id = $2
		ORDER BY decided_at DESC
		LIMIT $3`

	rows, err := scope.Conn.Query(ctx, query, scopeName, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var events []*models.DecisionEvent
	for rows.Next() {
		var e models.DecisionEvent
		var factsJSON []byte
		err := rows.Scan(
			&e.ID,
			&e.Timestamp,
			&e.ActingUserID,
			&e.Scope,
			&e.ResourceID,
			&e.Check,
			&e.TargetUserID,
			&e.Granted,
			&e.Reason,
			&e.ActingRole,
			&factsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		if len(factsJSON) > 0 {
			var facts models.AccessFacts
			if err := json.Unmarshal(factsJSON, &facts); err != nil {
				return nil, fmt.Errorf("failed to unmarshal facts: %w", err)
			}
			e.Facts = &facts
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return events, nil
}
