package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoUser is returned when the context carries no valid user identity.
var ErrNoUser = errors.New("valid user UUID not found in context")

// GetUserIDFromContext returns the raw subject claim, or "" when
// unauthenticated.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}

// GetUserUUIDFromContext parses the subject claim as a UUID.
func GetUserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userIDStr := GetUserIDFromContext(ctx)
	if userIDStr == "" {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// RequireUserUUIDFromContext is GetUserUUIDFromContext returning ErrNoUser
// on failure. Services call it to obtain the acting user.
func RequireUserUUIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userID, ok := GetUserUUIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	return userID, nil
}
