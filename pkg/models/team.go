package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups users who share access to team tasks.
type Team struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMembership associates a user with a team. Unique on (TeamID, UserID);
// each team has exactly one RoleOwner row.
type TeamMembership struct {
	TeamID    uuid.UUID `json:"team_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamWithRole is a team as seen by one of its members.
type TeamWithRole struct {
	Team
	Role        Role `json:"role"`
	MemberCount int  `json:"member_count"`
}
