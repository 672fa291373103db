package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/services"
)

// ShareTaskRequest is the body of POST /api/tasks/{id}/shares.
type ShareTaskRequest struct {
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
}

// ListSharesResponse wraps a share listing.
type ListSharesResponse struct {
	Shares []*models.TaskShare `json:"shares"`
}

// SharesHandler handles task share HTTP requests.
type SharesHandler struct {
	shareService services.ShareService
	logger       *zap.Logger
}

// NewSharesHandler creates a new shares handler.
func NewSharesHandler(shareService services.ShareService, logger *zap.Logger) *SharesHandler {
	return &SharesHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// RegisterRoutes registers the shares handler's routes on the given mux.
func (h *SharesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	mux.HandleFunc("POST /api/tasks/{id}/shares", authMiddleware.RequireAuth(scopeMiddleware(h.Share)))
	mux.HandleFunc("GET /api/tasks/{id}/shares", authMiddleware.RequireAuth(scopeMiddleware(h.List)))
	mux.HandleFunc("DELETE /api/tasks/{id}/shares/{uid}", authMiddleware.RequireAuth(scopeMiddleware(h.Revoke)))
	mux.HandleFunc("GET /api/shares", authMiddleware.RequireAuth(scopeMiddleware(h.SharedWithMe)))
}

// Share handles POST /api/tasks/{id}/shares
// Sharing with a user who already has a share updates its permission.
func (h *SharesHandler) Share(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	var req ShareTaskRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	userID, ok := parseBodyUUID(w, req.UserID, "user_id", h.logger)
	if !ok {
		return
	}

	permission, err := models.ParseSharePermission(req.Permission)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_permission", "permission must be view or edit"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	share, err := h.shareService.Share(r.Context(), taskID, userID, permission)
	if err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, share); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// List handles GET /api/tasks/{id}/shares
func (h *SharesHandler) List(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	shares, err := h.shareService.List(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListSharesResponse{Shares: shares}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Revoke handles DELETE /api/tasks/{id}/shares/{uid}
func (h *SharesHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.shareService.Revoke(r.Context(), taskID, userID); err != nil {
		writeServiceError(w, r, err, "Share", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SharedWithMe handles GET /api/shares
func (h *SharesHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	shares, err := h.shareService.SharedWithMe(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Share", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListSharesResponse{Shares: shares}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
