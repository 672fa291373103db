package models

import (
	"fmt"
	"strings"
)

// Role is a member's authority level within a team.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// roleRank is the authority order Owner > Admin > Member > Viewer.
// All role comparisons go through this table.
var roleRank = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleMember: 2,
	RoleViewer: 1,
}

// ValidRoles lists every role from most to least authority.
var ValidRoles = []Role{RoleOwner, RoleAdmin, RoleMember, RoleViewer}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r carries at least the authority of min.
// Unknown roles never satisfy any minimum.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[min]
	if !ok {
		return false
	}
	return have >= need
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes and validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// SharePermission is a direct per-task grant level.
type SharePermission string

const (
	SharePermissionView SharePermission = "view"
	SharePermissionEdit SharePermission = "edit"
)

// Valid reports whether p is a known share permission.
func (p SharePermission) Valid() bool {
	return p == SharePermissionView || p == SharePermissionEdit
}

func (p SharePermission) String() string {
	return string(p)
}

// ParseSharePermission normalizes and validates a share permission.
func ParseSharePermission(s string) (SharePermission, error) {
	p := SharePermission(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid share permission: %q", s)
	}
	return p, nil
}
