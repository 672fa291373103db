package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/services"
)

// CreateTeamRequest is the body of POST /api/teams.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// InviteMemberRequest is the body of POST /api/teams/{tid}/members.
// An empty role means member.
type InviteMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ChangeRoleRequest is the body of PUT /api/teams/{tid}/members/{uid}.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// TransferOwnershipRequest is the body of POST /api/teams/{tid}/transfer.
type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

// ListTeamsResponse wraps the caller's teams.
type ListTeamsResponse struct {
	Teams []*models.TeamWithRole `json:"teams"`
}

// ListMembersResponse wraps a team's member list.
type ListMembersResponse struct {
	Members []*models.TeamMembership `json:"members"`
}

// TeamsHandler handles team and membership HTTP requests.
type TeamsHandler struct {
	teamService services.TeamService
	logger      *zap.Logger
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(teamService services.TeamService, logger *zap.Logger) *TeamsHandler {
	return &TeamsHandler{
		teamService: teamService,
		logger:      logger,
	}
}

// RegisterRoutes registers the teams handler's routes on the given mux.
func (h *TeamsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	mux.HandleFunc("POST /api/teams", authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET /api/teams", authMiddleware.RequireAuth(scopeMiddleware(h.List)))
	mux.HandleFunc("GET /api/teams/{tid}", authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("DELETE /api/teams/{tid}", authMiddleware.RequireAuth(scopeMiddleware(h.Delete)))
	mux.HandleFunc("GET /api/teams/{tid}/members", authMiddleware.RequireAuth(scopeMiddleware(h.ListMembers)))
	mux.HandleFunc("POST /api/teams/{tid}/members", authMiddleware.RequireAuth(scopeMiddleware(h.Invite)))
	mux.HandleFunc("PUT /api/teams/{tid}/members/{uid}", authMiddleware.RequireAuth(scopeMiddleware(h.ChangeRole)))
	mux.HandleFunc("DELETE /api/teams/{tid}/members/{uid}", authMiddleware.RequireAuth(scopeMiddleware(h.RemoveMember)))
	mux.HandleFunc("POST /api/teams/{tid}/transfer", authMiddleware.RequireAuth(scopeMiddleware(h.TransferOwnership)))
	mux.HandleFunc("POST /api/teams/{tid}/leave", authMiddleware.RequireAuth(scopeMiddleware(h.Leave)))
}

// Create handles POST /api/teams
// The caller becomes the team's owner.
func (h *TeamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	team, err := h.teamService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, team); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// List handles GET /api/teams
func (h *TeamsHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListTeamsResponse{Teams: teams}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Get handles GET /api/teams/{tid}
func (h *TeamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}

	team, err := h.teamService.Get(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, team); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Delete handles DELETE /api/teams/{tid}
func (h *TeamsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.teamService.Delete(r.Context(), teamID); err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/teams/{tid}/members
func (h *TeamsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}

	members, err := h.teamService.ListMembers(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListMembersResponse{Members: members}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Invite handles POST /api/teams/{tid}/members
func (h *TeamsHandler) Invite(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}

	var req InviteMemberRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	userID, ok := parseBodyUUID(w, req.UserID, "user_id", h.logger)
	if !ok {
		return
	}

	var role models.Role
	if req.Role != "" {
		parsed, ok := h.parseRole(w, req.Role)
		if !ok {
			return
		}
		role = parsed
	}

	membership, err := h.teamService.Invite(r.Context(), teamID, userID, role)
	if err != nil {
		writeServiceError(w, r, err, "Member", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, membership); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// ChangeRole handles PUT /api/teams/{tid}/members/{uid}
func (h *TeamsHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	role, ok := h.parseRole(w, req.Role)
	if !ok {
		return
	}

	membership, err := h.teamService.ChangeRole(r.Context(), teamID, userID, role)
	if err != nil {
		writeServiceError(w, r, err, "Member", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, membership); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// RemoveMember handles DELETE /api/teams/{tid}/members/{uid}
func (h *TeamsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(r.Context(), teamID, userID); err != nil {
		writeServiceError(w, r, err, "Member", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TransferOwnership handles POST /api/teams/{tid}/transfer
func (h *TeamsHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}

	var req TransferOwnershipRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	newOwnerID, ok := parseBodyUUID(w, req.NewOwnerID, "new_owner_id", h.logger)
	if !ok {
		return
	}

	if err := h.teamService.TransferOwnership(r.Context(), teamID, newOwnerID); err != nil {
		writeServiceError(w, r, err, "Member", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave handles POST /api/teams/{tid}/leave
func (h *TeamsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	teamID, ok := ParseTeamID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.teamService.Leave(r.Context(), teamID); err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamsHandler) parseRole(w http.ResponseWriter, value string) (models.Role, bool) {
	role, err := models.ParseRole(value)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_role", "role must be one of owner, admin, member, viewer"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return role, true
}
