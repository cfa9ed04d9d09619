package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/events"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// transitionRule describes one table-driven lifecycle move. Checks run
// against the locked row in this order: authorize (Forbidden), the
// transition table (InvalidTransition), then require.
type transitionRule struct {
	event     domain.TicketEvent
	authorize func(current *domain.Ticket) error
	require   func(current *domain.Ticket) error
	patch     func(current *domain.Ticket, now time.Time) domain.TicketPatch
	note      string
}

func (s *TicketService) applyTransition(ctx context.Context, session domain.Session, ticketID int64, rule transitionRule) (*domain.Ticket, error) {
	now := s.clock.Now()
	var from domain.TicketStatus

	updated, err := s.tickets.Mutate(ctx, ticketID, func(current *domain.Ticket) (domain.TicketPatch, *domain.TicketHistory, error) {
		if rule.authorize != nil {
			if err := rule.authorize(current); err != nil {
				return domain.TicketPatch{}, nil, err
			}
		}
		next, ok := domain.NextStatus(current.Status, rule.event)
		if !ok {
			return domain.TicketPatch{}, nil, apperrors.NewInvalidTransition("action not allowed in current status",
				map[string]any{"status": current.Status, "action": rule.event})
		}
		if rule.require != nil {
			if err := rule.require(current); err != nil {
				return domain.TicketPatch{}, nil, err
			}
		}

		var patch domain.TicketPatch
		if rule.patch != nil {
			patch = rule.patch(current, now)
		}
		patch.Status = &next
		patch.UpdatedAt = now

		from = current.Status
		actorID := session.UserID
		return patch, &domain.TicketHistory{
			ActorID:    &actorID,
			Event:      rule.event,
			FromStatus: &from,
			ToStatus:   next,
			Note:       rule.note,
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, storeErr(err, ticketID)
	}

	s.recordTransition(updated, session.UserID, rule.event, &from)
	return updated, nil
}

// AssignToSelf takes an open or in-progress ticket.
func (s *TicketService) AssignToSelf(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	session, err := s.access.RequireAgentCapability(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, session, ticketID, transitionRule{
		event: domain.EventAssignSelf,
		patch: func(_ *domain.Ticket, _ time.Time) domain.TicketPatch {
			id := session.UserID
			return domain.TicketPatch{AssignedToID: &id}
		},
	})
}

// AssignTo lets an admin hand a ticket to an active agent. The new
// assignee is notified.
func (s *TicketService) AssignTo(ctx context.Context, ticketID, assigneeID int64) (*domain.Ticket, error) {
	session, err := s.access.RequireAdminCapability(ctx)
	if err != nil {
		return nil, err
	}

	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown assignee", map[string]any{"assignee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.IsActive || !assignee.Role.HasAgentCapability() {
		return nil, apperrors.NewValidationError("assignee must be an active agent", map[string]any{"assignee_id": assigneeID})
	}

	updated, err := s.applyTransition(ctx, session, ticketID, transitionRule{
		event: domain.EventAssign,
		patch: func(_ *domain.Ticket, _ time.Time) domain.TicketPatch {
			return domain.TicketPatch{AssignedToID: &assignee.ID}
		},
	})
	if err != nil {
		return nil, err
	}
	s.notifyNow(ctx, events.EventTicketAssigned, updated.ID, session.UserID)
	return updated, nil
}

// Unassign clears the assignee of an in-progress ticket.
func (s *TicketService) Unassign(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	session, err := s.access.RequireAgentCapability(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, session, ticketID, transitionRule{
		event: domain.EventUnassign,
		patch: func(_ *domain.Ticket, _ time.Time) domain.TicketPatch {
			return domain.TicketPatch{ClearAssignee: true}
		},
	})
}

// SetStatus is the agent override: it moves a ticket to any valid status
// from any status, skipping the transition table and its guards. Entering
// resolved this way records an admin closure.
func (s *TicketService) SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) (*domain.Ticket, error) {
	session, err := s.access.RequireAgentCapability(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	now := s.clock.Now()
	var from domain.TicketStatus
	updated, err := s.tickets.Mutate(ctx, ticketID, func(current *domain.Ticket) (domain.TicketPatch, *domain.TicketHistory, error) {
		from = current.Status
		patch := domain.TicketPatch{Status: &status, UpdatedAt: now}
		if status == domain.TicketStatusResolved && current.Status != domain.TicketStatusResolved {
			closedBy := domain.ClosedByAdmin
			actorID := session.UserID
			patch.ClosedBy = &closedBy
			patch.ClosedAt = timePtr(now)
			patch.ClosedByUserID = &actorID
		}
		// A ticket moved out of resolved is open again and carries no closure.
		if current.Status == domain.TicketStatusResolved && status != domain.TicketStatusResolved {
			patch.ClearClosure = true
		}
		actorID := session.UserID
		return patch, &domain.TicketHistory{
			ActorID:    &actorID,
			Event:      domain.EventSetStatus,
			FromStatus: &from,
			ToStatus:   status,
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, storeErr(err, ticketID)
	}

	s.recordTransition(updated, session.UserID, domain.EventSetStatus, &from)
	return updated, nil
}
