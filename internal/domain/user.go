package domain

import (
	"fmt"
	"time"
)

// Role is the capability tier of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleAgent:
		return RoleAgent, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// HasAgentCapability reports whether the role may triage tickets.
func (r Role) HasAgentCapability() bool {
	switch r {
	case RoleAdmin, RoleAgent:
		return true
	case RoleUser:
		return false
	}
	return false
}

// HasAdminCapability reports whether the role may administer the desk.
func (r Role) HasAdminCapability() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleAgent, RoleUser:
		return false
	}
	return false
}

// User is anyone who can sign in: requesters, agents and admins.
type User struct {
	ID              int64
	Name            string
	Email           string
	Role            Role
	AttentionAreaID *int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session is the caller identity resolved for a single request.
type Session struct {
	UserID          int64
	Role            Role
	AttentionAreaID *int64
}

// IsAgentOfArea reports whether the session belongs to an agent of areaID.
func (s Session) IsAgentOfArea(areaID int64) bool {
	return s.Role.HasAgentCapability() && s.AttentionAreaID != nil && *s.AttentionAreaID == areaID
}
