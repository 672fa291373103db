package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/audit"
	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/services"
	"github.com/muskanBP/todo-app/pkg/sql"
)

// ScopeMiddleware attaches a database scope to the request context.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	TeamID      *uuid.UUID `json:"team_id"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/{id}. Absent fields are
// left unchanged; an explicit null clears due_date or team_id.
type UpdateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"`
	Priority    *string      `json:"priority"`
	DueDate     nullableTime `json:"due_date"`
	TeamID      nullableUUID `json:"team_id"`
}

// ListTasksResponse wraps a task listing.
type ListTasksResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Total int            `json:"total"`
}

// TasksHandler handles task HTTP requests.
type TasksHandler struct {
	taskService services.TaskService
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(taskService services.TaskService, auditor *audit.SecurityAuditor, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{
		taskService: taskService,
		auditor:     auditor,
		logger:      logger,
	}
}

// RegisterRoutes registers the tasks handler's routes on the given mux.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	mux.HandleFunc("POST /api/tasks", authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET /api/tasks", authMiddleware.RequireAuth(scopeMiddleware(h.List)))
	mux.HandleFunc("GET /api/tasks/{id}", authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("PUT /api/tasks/{id}", authMiddleware.RequireAuth(scopeMiddleware(h.Update)))
	mux.HandleFunc("DELETE /api/tasks/{id}", authMiddleware.RequireAuth(scopeMiddleware(h.Delete)))
	mux.HandleFunc("GET /api/tasks/{id}/permissions", authMiddleware.RequireAuth(scopeMiddleware(h.Permissions)))
}

// Create handles POST /api/tasks
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	task, err := h.taskService.Create(r.Context(), &services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		TeamID:      req.TeamID,
	})
	if err != nil {
		writeServiceError(w, r, err, "Team", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, task); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// List handles GET /api/tasks
// Query params: status, search, team_id, limit
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  defaultListLimit,
	}

	if v := q.Get("team_id"); v != "" {
		teamID, err := uuid.Parse(v)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_team_id", "Invalid team ID format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.TeamID = &teamID
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.Limit = min(limit, maxListLimit)
	}

	h.screenInputs(r, map[string]string{"search": filter.Search})

	tasks, err := h.taskService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListTasksResponse{Tasks: tasks, Total: len(tasks)}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{id}
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Update handles PUT /api/tasks/{id}
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	input := &services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		SetTeam:     req.TeamID.Set,
		TeamID:      req.TeamID.Value,
	}
	if req.DueDate.Set {
		input.DueDate = req.DueDate.Value
		input.ClearDueDate = req.DueDate.Value == nil
	}

	task, err := h.taskService.Update(r.Context(), taskID, input)
	if err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tasks/{id}
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), taskID); err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Permissions handles GET /api/tasks/{id}/permissions
// Returns the caller's capabilities and the grant sources behind them.
func (h *TasksHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	perms, err := h.taskService.Permissions(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, r, err, "Task", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, perms); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// screenInputs reports free-text inputs that look like SQL injection.
// The request continues either way; queries are parameterized.
func (h *TasksHandler) screenInputs(r *http.Request, inputs map[string]string) {
	if h.auditor == nil {
		return
	}
	for _, result := range sql.CheckInputs(inputs) {
		h.auditor.LogInjectionAttempt(r.Context(), audit.InjectionDetails{
			ParamName:   result.Field,
			ParamValue:  result.Value,
			Fingerprint: result.Fingerprint,
			Endpoint:    r.URL.Path,
		}, clientIP(r))
	}
}
