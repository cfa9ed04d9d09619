package service

import (
	"context"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// AccessPort resolves the caller of an operation. Implementations return
// Unauthorized when no session exists and Forbidden when the session lacks
// the requested capability.
type AccessPort interface {
	RequireAuth(ctx context.Context) (domain.Session, error)
	RequireAgentCapability(ctx context.Context) (domain.Session, error)
	RequireAdminCapability(ctx context.Context) (domain.Session, error)
}

// canView reports whether s may read t: admins, the creator, the assignee,
// watchers, and agents of the ticket's attention area.
func canView(s domain.Session, t *domain.Ticket) bool {
	switch {
	case s.Role.HasAdminCapability():
		return true
	case t.CreatedByID == s.UserID, t.IsAssignedTo(s.UserID), t.IsWatcher(s.UserID):
		return true
	case s.IsAgentOfArea(t.AttentionAreaID):
		return true
	}
	return false
}
