package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/apperrors"
	"github.com/muskanBP/todo-app/pkg/auth"
)

// ErrorBody is the JSON shape of every error response. RequiredRole is only
// filled for team members who lack the role an action needs.
type ErrorBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	RequiredRole string `json:"required_role,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: errorCode, Message: message})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps an error returned by a service to an HTTP response.
// resource names the thing that was looked up, for 404 messages.
// Unrecognized errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string, logger *zap.Logger) {
	status, body := classifyError(err, resource)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	if err := WriteJSON(w, status, body); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func classifyError(err error, resource string) (int, ErrorBody) {
	var denied *apperrors.DeniedError
	switch {
	case errors.Is(err, auth.ErrNoUser):
		return http.StatusUnauthorized, ErrorBody{Error: "unauthorized", Message: "Authentication required"}

	case errors.As(err, &denied) && !denied.Hidden:
		return http.StatusForbidden, ErrorBody{
			Error:        "forbidden",
			Message:      deniedMessage(err),
			RequiredRole: denied.RequiredRole,
		}

	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "not_found", Message: resource + " not found"}

	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrInvalidRole):
		return http.StatusBadRequest, ErrorBody{Error: "invalid_request", Message: err.Error()}

	case errors.Is(err, apperrors.ErrLastOwner):
		return http.StatusConflict, ErrorBody{Error: "last_owner", Message: "The team owner cannot be removed"}

	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, ErrorBody{Error: "conflict", Message: resource + " already exists"}

	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Error: "forbidden", Message: "Access denied"}
	}

	return http.StatusInternalServerError, ErrorBody{Error: "internal_error", Message: "Internal server error"}
}

func deniedMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrSelfRoleChangeDenied):
		return "You cannot change your own role"
	case errors.Is(err, apperrors.ErrLastOwnerCannotLeave):
		return "Transfer ownership before leaving the team"
	case errors.Is(err, apperrors.ErrInsufficientRole):
		return "Your team role does not allow this action"
	}
	return "Access denied"
}
