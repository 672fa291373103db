package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/repositories"
)

const maxTeamNameLength = 100

// TeamService defines team and membership operations. Every mutation is
// authorized from the caller's role in the team before it runs.
type TeamService interface {
	Create(ctx context.Context, name, description string) (*models.Team, error)
	// Get returns the team as seen by the caller, who must be a member.
	Get(ctx context.Context, teamID uuid.UUID) (*models.TeamWithRole, error)
	List(ctx context.Context) ([]*models.TeamWithRole, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMembership, error)
	// Invite adds userID to the team. An empty role means Member.
	Invite(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error)
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	ChangeRole(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error)
	// TransferOwnership hands the team to another member; the caller stays
	// on as Admin.
	TransferOwnership(ctx context.Context, teamID, newOwnerID uuid.UUID) error
	Delete(ctx context.Context, teamID uuid.UUID) error
	Leave(ctx context.Context, teamID uuid.UUID) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	checker  AccessChecker
	logger   *zap.Logger
}

// NewTeamService creates a new team service.
func NewTeamService(teamRepo repositories.TeamRepository, checker AccessChecker, logger *zap.Logger) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		checker:  checker,
		logger:   logger.Named("team-service"),
	}
}

var _ TeamService = (*teamService)(nil)

func (s *teamService) Create(ctx context.Context, name, description string) (*models.Team, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("team name is required")
	}
	if len(name) > maxTeamNameLength {
		return nil, invalidInput("team name must be at most %d characters", maxTeamNameLength)
	}

	team := &models.Team{
		Name:        name,
		Description: description,
		CreatedBy:   userID,
	}
	if err := s.teamRepo.CreateWithOwner(ctx, team, userID); err != nil {
		return nil, err
	}

	s.logger.Info("Created team",
		zap.String("team_id", team.ID.String()),
		zap.String("owner_id", userID.String()))

	return team, nil
}

func (s *teamService) Get(ctx context.Context, teamID uuid.UUID) (*models.TeamWithRole, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	membership, err := requireMembership(ctx, s.teamRepo, teamID, userID)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	return &models.TeamWithRole{Team: *team, Role: membership.Role, MemberCount: len(members)}, nil
}

func (s *teamService) List(ctx context.Context) ([]*models.TeamWithRole, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []*models.TeamWithRole{}
	}
	return teams, nil
}

func (s *teamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMembership, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := requireMembership(ctx, s.teamRepo, teamID, userID); err != nil {
		return nil, err
	}

	return s.teamRepo.ListMembers(ctx, teamID)
}

func (s *teamService) Invite(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, invalidInput("user to invite is required")
	}
	if role == "" {
		role = models.RoleMember
	}

	req := authz.TeamActionRequest{Action: authz.TeamActionInviteMember, TargetUserID: userID, NewRole: role}
	if err := authorizeTeam(ctx, s.checker, actingUserID, teamID, req); err != nil {
		return nil, err
	}

	membership, err := s.teamRepo.AddMember(ctx, teamID, userID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added team member",
		zap.String("team_id", teamID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", role.String()),
		zap.String("invited_by", actingUserID.String()))

	return membership, nil
}

// RemoveMember removes another member. Removing yourself is the same as Leave.
func (s *teamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}

	req := authz.TeamActionRequest{Action: authz.TeamActionRemoveMember, TargetUserID: userID}
	if err := authorizeTeam(ctx, s.checker, actingUserID, teamID, req); err != nil {
		return err
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}

	s.logger.Info("Removed team member",
		zap.String("team_id", teamID.String()),
		zap.String("user_id", userID.String()),
		zap.String("removed_by", actingUserID.String()))

	return nil
}

func (s *teamService) ChangeRole(ctx context.Context, teamID, userID uuid.UUID, role models.Role) (*models.TeamMembership, error) {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req := authz.TeamActionRequest{Action: authz.TeamActionChangeRole, TargetUserID: userID, NewRole: role}
	if err := authorizeTeam(ctx, s.checker, actingUserID, teamID, req); err != nil {
		return nil, err
	}

	membership, err := s.teamRepo.UpdateMemberRole(ctx, teamID, userID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Changed team member role",
		zap.String("team_id", teamID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", role.String()),
		zap.String("changed_by", actingUserID.String()))

	return membership, nil
}

func (s *teamService) TransferOwnership(ctx context.Context, teamID, newOwnerID uuid.UUID) error {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}
	if newOwnerID == uuid.Nil {
		return invalidInput("new owner is required")
	}

	req := authz.TeamActionRequest{Action: authz.TeamActionTransferOwnership, TargetUserID: newOwnerID}
	if err := authorizeTeam(ctx, s.checker, actingUserID, teamID, req); err != nil {
		return err
	}

	if err := s.teamRepo.TransferOwnership(ctx, teamID, actingUserID, newOwnerID); err != nil {
		return err
	}

	s.logger.Info("Transferred team ownership",
		zap.String("team_id", teamID.String()),
		zap.String("from", actingUserID.String()),
		zap.String("to", newOwnerID.String()))

	return nil
}

func (s *teamService) Delete(ctx context.Context, teamID uuid.UUID) error {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}

	req := authz.TeamActionRequest{Action: authz.TeamActionDeleteTeam}
	if err := authorizeTeam(ctx, s.checker, actingUserID, teamID, req); err != nil {
		return err
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return err
	}

	s.logger.Info("Deleted team",
		zap.String("team_id", teamID.String()),
		zap.String("deleted_by", actingUserID.String()))

	return nil
}

// Leave removes the caller from the team. The Owner must transfer first.
func (s *teamService) Leave(ctx context.Context, teamID uuid.UUID) error {
	actingUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}

	req := authz.TeamActionRequest{Action: authz.TeamActionLeaveTeam}
	if err := authorizeTeam(ctx, s.checker, actingUserID, teamID, req); err != nil {
		return err
	}

	return s.teamRepo.RemoveMember(ctx, teamID, actingUserID)
}
