package auth

import (
	"context"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}

// ContextAccess resolves capabilities from the session carried in the
// request context.
type ContextAccess struct{}

// NewContextAccess returns the context-backed access port.
func NewContextAccess() ContextAccess {
	return ContextAccess{}
}

// RequireAuth returns the caller's session or Unauthorized.
func (ContextAccess) RequireAuth(ctx context.Context) (domain.Session, error) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return domain.Session{}, apperrors.NewUnauthorized("authentication required")
	}
	return s, nil
}

// RequireAgentCapability admits agents and admins.
func (a ContextAccess) RequireAgentCapability(ctx context.Context) (domain.Session, error) {
	s, err := a.RequireAuth(ctx)
	if err != nil {
		return s, err
	}
	if !s.Role.HasAgentCapability() {
		return s, apperrors.NewForbidden("agent capability required")
	}
	return s, nil
}

// RequireAdminCapability admits admins only.
func (a ContextAccess) RequireAdminCapability(ctx context.Context) (domain.Session, error) {
	s, err := a.RequireAuth(ctx)
	if err != nil {
		return s, err
	}
	if !s.Role.HasAdminCapability() {
		return s, apperrors.NewForbidden("admin capability required")
	}
	return s, nil
}
