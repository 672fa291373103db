package models

// AccessFacts holds the independent grant signals one user has on one task.
// More than one source may be present at once.
type AccessFacts struct {
	IsOwner         bool             `json:"is_owner"`
	TeamRole        *Role            `json:"team_role,omitempty"`
	SharePermission *SharePermission `json:"share_permission,omitempty"`
}

// HasAnyGrant reports whether any grant source is present.
func (f AccessFacts) HasAnyGrant() bool {
	return f.IsOwner || f.TeamRole != nil || f.SharePermission != nil
}
