package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/database"
	"github.com/muskanBP/todo-app/pkg/models"
)

// TeamRepository defines data access for teams and memberships.
// Mutations that touch the Owner row run in a transaction so every team
// keeps exactly one Owner.
type TeamRepository interface {
	// CreateWithOwner inserts the team and the creator's Owner membership together.
	CreateWithOwner(ctx context.Context, team *models.Team, ownerID uuid.UUID) error
	// FindTeam returns apperrors.ErrTeamNotFound when the team does not exist.
	FindTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.TeamWithRole, error)
	// FindTeamMembership returns nil, nil when the user is not a member.
	FindTeamMembership(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMembership, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMembership, error)
	// AddMember returns apperrors.ErrConflict if the user is already a member.
	AddMember(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error)
	// UpdateMemberRole never touches the Owner row nor assigns RoleOwner.
	UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error)
	// RemoveMember refuses to remove the Owner.
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	// TransferOwnership makes newOwnerID the Owner and demotes the current
	// Owner to Admin.
	TransferOwnership(ctx context.Context, teamID, currentOwnerID, newOwnerID uuid.UUID) error
	// Delete removes the team. Its tasks become personal tasks of their
	// owners and lose any shares.
	Delete(ctx context.Context, teamID uuid.UUID) error
}

type teamRepository struct{}

// NewTeamRepository creates a new team repository.
func NewTeamRepository() TeamRepository {
	return &teamRepository{}
}

var _ TeamRepository = (*teamRepository)(nil)

const membershipColumns = `team_id, user_id, role, joined_at, updated_at`

func scanMembership(row pgx.Row) (*models.TeamMembership, error) {
	var m models.TeamMembership
	if err := row.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *teamRepository) CreateWithOwner(ctx context.Context, team *models.Team, ownerID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	team.CreatedBy = ownerID

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	err = tx.QueryRow(ctx, `
		INSERT INTO teams (id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		team.ID, team.Name, team.Description, team.CreatedBy,
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_memberships (team_id, user_id, role)
		VALUES ($1, $2, $3)`,
		team.ID, ownerID, models.RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to add team owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit team creation: %w", err)
	}

	return nil
}

func (r *teamRepository) FindTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	var team models.Team
	err := scope.Conn.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM teams WHERE id = $1`, teamID,
	).Scan(&team.ID, &team.Name, &team.Description, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

func (r *teamRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.TeamWithRole, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `
		SELECT t.id, t.name, t.description, t.created_by, t.created_at, t.updated_at, m.role,
		       (SELECT COUNT(*) FROM team_memberships c WHERE c.team_id = t.id)
		FROM teams t
		JOIN team_memberships m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.name, t.id`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.TeamWithRole
	for rows.Next() {
		var t models.TeamWithRole
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Description,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Role,
			&t.MemberCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

func (r *teamRepository) FindTeamMembership(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMembership, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	m, err := scanMembership(scope.Conn.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM team_memberships WHERE team_id = $1 AND user_id = $2`,
		teamID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team membership: %w", err)
	}

	return m, nil
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMembership, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `
		SELECT ` + membershipColumns + `
		FROM team_memberships
		WHERE team_id = $1
		ORDER BY CASE role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 WHEN 'member' THEN 2 ELSE 3 END,
		         joined_at, user_id`

	rows, err := scope.Conn.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var members []*models.TeamMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return members, nil
}

func (r *teamRepository) AddMember(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	if !role.Valid() || role == models.RoleOwner {
		return nil, fmt.Errorf("%w: %q cannot be assigned on invite", apperrors.ErrInvalidRole, role)
	}

	m, err := scanMembership(scope.Conn.QueryRow(ctx, `
		INSERT INTO team_memberships (team_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING `+membershipColumns,
		teamID, userID, role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("user is already a team member: %w", apperrors.ErrConflict)
			case "23503":
				return nil, apperrors.ErrTeamNotFound
			}
		}
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}

	return m, nil
}

func (r *teamRepository) UpdateMemberRole(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	if !role.Valid() || role == models.RoleOwner {
		return nil, fmt.Errorf("%w: ownership changes only by transfer", apperrors.ErrInvalidRole)
	}

	m, err := scanMembership(scope.Conn.QueryRow(ctx, `
		UPDATE team_memberships SET role = $3
		WHERE team_id = $1 AND user_id = $2 AND role <> 'owner'
		RETURNING `+membershipColumns,
		teamID, userID, role))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update team member role: %w", err)
	}

	return nil, r.explainMissingRow(ctx, scope, teamID, userID)
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx, `
		DELETE FROM team_memberships
		WHERE team_id = $1 AND user_id = $2 AND role <> 'owner'`,
		teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.explainMissingRow(ctx, scope, teamID, userID)
	}

	return nil
}

// explainMissingRow distinguishes "not a member" from "is the Owner" after a
// guarded update or delete matched nothing.
func (r *teamRepository) explainMissingRow(ctx context.Context, scope *database.Scope, teamID, userID uuid.UUID) error {
	var role models.Role
	err := scope.Conn.QueryRow(ctx,
		`SELECT role FROM team_memberships WHERE team_id = $1 AND user_id = $2`,
		teamID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("team member %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get team member: %w", err)
	}
	return apperrors.ErrLastOwner
}

func (r *teamRepository) TransferOwnership(ctx context.Context, teamID, currentOwnerID, newOwnerID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	if currentOwnerID == newOwnerID {
		return fmt.Errorf("%w: new owner is already the owner", apperrors.ErrInvalidInput)
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	rows, err := tx.Query(ctx, `
		SELECT user_id, role FROM team_memberships
		WHERE team_id = $1 AND user_id IN ($2, $3)
		FOR UPDATE`,
		teamID, currentOwnerID, newOwnerID)
	if err != nil {
		return fmt.Errorf("failed to lock team members: %w", err)
	}
	roles := make(map[uuid.UUID]models.Role, 2)
	for rows.Next() {
		var userID uuid.UUID
		var role models.Role
		if err := rows.Scan(&userID, &role); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan team member: %w", err)
		}
		roles[userID] = role
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating team members: %w", err)
	}

	if roles[currentOwnerID] != models.RoleOwner {
		return fmt.Errorf("%w: current user is not the team owner", apperrors.ErrForbidden)
	}
	if _, ok := roles[newOwnerID]; !ok {
		return fmt.Errorf("new owner is not a team member: %w", apperrors.ErrNotFound)
	}

	// Demote first; the partial unique index allows one owner row at a time.
	if _, err := tx.Exec(ctx, `
		UPDATE team_memberships SET role = 'admin'
		WHERE team_id = $1 AND user_id = $2`, teamID, currentOwnerID); err != nil {
		return fmt.Errorf("failed to demote current owner: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE team_memberships SET role = 'owner'
		WHERE team_id = $1 AND user_id = $2`, teamID, newOwnerID); err != nil {
		return fmt.Errorf("failed to promote new owner: %w", err)
	}

	var owners int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM team_memberships WHERE team_id = $1 AND role = 'owner'`,
		teamID).Scan(&owners); err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if owners != 1 {
		return fmt.Errorf("%w: found %d owners after transfer", apperrors.ErrLastOwner, owners)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ownership transfer: %w", err)
	}

	return nil
}

func (r *teamRepository) Delete(ctx context.Context, teamID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	// Shares granted on team tasks go with the team; the tasks stay with
	// their owners as personal tasks.
	if _, err := tx.Exec(ctx, `
		DELETE FROM task_shares
		WHERE task_id IN (SELECT id FROM tasks WHERE team_id = $1)`, teamID); err != nil {
		return fmt.Errorf("failed to delete team task shares: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE tasks SET team_id = NULL WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to detach team tasks: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM team_memberships WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team memberships: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrTeamNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit team deletion: %w", err)
	}

	return nil
}
