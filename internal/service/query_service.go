package service

import (
	"context"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/repository"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// ListScope selects which tickets a listing starts from.
type ListScope string

const (
	// ScopeVisible is the default: everything the caller may see.
	ScopeVisible  ListScope = ""
	ScopeMine     ListScope = "mine"
	ScopeAssigned ListScope = "assigned"
	ScopeWatching ListScope = "watching"
	ScopeArea     ListScope = "area"
	ScopeAll      ListScope = "all"
)

// TicketListInput describes list filters.
type TicketListInput struct {
	Scope           ListScope
	Statuses        []domain.TicketStatus
	Priorities      []domain.TicketPriority
	AttentionAreaID *int64
	SearchTerm      *string
	Limit           int
	Offset          int
}

const maxListLimit = 100

// ListTickets returns a page of tickets with per-caller comment counts.
func (s *TicketService) ListTickets(ctx context.Context, input TicketListInput) ([]domain.Ticket, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := scopeFilter(session, input)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, session.UserID, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// Dashboard counts the caller's visible tickets per status, with the total
// number of unread comments across them.
func (s *TicketService) Dashboard(ctx context.Context) (domain.TicketDashboard, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return domain.TicketDashboard{}, err
	}
	filter, err := scopeFilter(session, TicketListInput{})
	if err != nil {
		return domain.TicketDashboard{}, err
	}
	dashboard, err := s.tickets.Dashboard(ctx, session.UserID, filter)
	if err != nil {
		return domain.TicketDashboard{}, apperrors.MapError(err)
	}
	return dashboard, nil
}

func scopeFilter(session domain.Session, input TicketListInput) (repository.TicketFilter, error) {
	for _, st := range input.Statuses {
		if !st.Valid() {
			return repository.TicketFilter{}, apperrors.NewValidationError("invalid status filter", map[string]any{"status": st})
		}
	}
	for _, pr := range input.Priorities {
		if !pr.Valid() {
			return repository.TicketFilter{}, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": pr})
		}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	filter := repository.TicketFilter{
		AttentionAreaID: input.AttentionAreaID,
		Statuses:        input.Statuses,
		Priorities:      input.Priorities,
		SearchTerm:      input.SearchTerm,
		Limit:           limit,
		Offset:          offset,
	}
	userID := session.UserID

	switch input.Scope {
	case ScopeVisible:
		if !session.Role.HasAdminCapability() {
			v := &repository.Visibility{UserID: userID}
			if session.Role.HasAgentCapability() {
				v.AttentionAreaID = session.AttentionAreaID
			}
			filter.VisibleTo = v
		}
	case ScopeMine:
		filter.CreatedByID = &userID
	case ScopeAssigned:
		if !session.Role.HasAgentCapability() {
			return filter, apperrors.NewForbidden("assigned listing requires agent capability")
		}
		filter.AssignedToID = &userID
	case ScopeWatching:
		filter.WatcherID = &userID
	case ScopeArea:
		if !session.Role.HasAgentCapability() {
			return filter, apperrors.NewForbidden("area listing requires agent capability")
		}
		if session.AttentionAreaID == nil {
			if !session.Role.HasAdminCapability() {
				return filter, apperrors.NewValidationError("caller has no attention area", nil)
			}
		} else {
			filter.AttentionAreaID = session.AttentionAreaID
		}
	case ScopeAll:
		if !session.Role.HasAdminCapability() {
			return filter, apperrors.NewForbidden("listing all tickets requires admin capability")
		}
	default:
		return filter, apperrors.NewValidationError("invalid scope", map[string]any{"scope": input.Scope})
	}
	return filter, nil
}

// ListAttentionAreas returns the areas a ticket can be routed to. Only
// areas accepting tickets are listed unless includeClosed is set, which
// needs agent capability.
func (s *TicketService) ListAttentionAreas(ctx context.Context, includeClosed bool) ([]domain.AttentionArea, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if includeClosed && !session.Role.HasAgentCapability() {
		return nil, apperrors.NewForbidden("listing closed areas requires agent capability")
	}
	areas, err := s.catalog.ListAttentionAreas(ctx, !includeClosed)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if areas == nil {
		areas = []domain.AttentionArea{}
	}
	return areas, nil
}
