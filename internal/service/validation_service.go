package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/events"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// RequestValidation asks the creator to confirm the fix. The assignee is
// checked on the locked row, not on whatever the caller saw earlier. A
// non-blank message is also posted as a public comment.
func (s *TicketService) RequestValidation(ctx context.Context, ticketID int64, message string) (*domain.Ticket, error) {
	session, err := s.access.RequireAgentCapability(ctx)
	if err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)

	updated, err := s.applyTransition(ctx, session, ticketID, transitionRule{
		event: domain.EventRequestValidation,
		require: func(current *domain.Ticket) error {
			if current.AssignedToID == nil {
				return apperrors.NewInvalidTransition("ticket has no assignee", map[string]any{"ticket_id": current.ID})
			}
			return nil
		},
		patch: func(_ *domain.Ticket, now time.Time) domain.TicketPatch {
			return domain.TicketPatch{ValidationRequestedAt: timePtr(now)}
		},
		note: message,
	})
	if err != nil {
		return nil, err
	}

	if message != "" {
		s.postSystemComment(ctx, updated.ID, session.UserID, message)
	}
	s.notifyDeferred(ctx, events.EventTicketValidationRequested, updated.ID, session.UserID, message)
	return updated, nil
}

// Approve lets the creator accept the fix, resolving the ticket.
func (s *TicketService) Approve(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.applyTransition(ctx, session, ticketID, transitionRule{
		event:     domain.EventApprove,
		authorize: creatorOnly(session),
		patch: func(_ *domain.Ticket, now time.Time) domain.TicketPatch {
			closedBy := domain.ClosedByUser
			actorID := session.UserID
			return domain.TicketPatch{ClosedBy: &closedBy, ClosedAt: timePtr(now), ClosedByUserID: &actorID}
		},
	})
	if err != nil {
		return nil, err
	}
	s.notifyDeferred(ctx, events.EventTicketResolved, updated.ID, session.UserID, "")
	return updated, nil
}

// Reject lets the creator send the ticket back to in progress. A non-blank
// reason is posted as a public comment.
func (s *TicketService) Reject(ctx context.Context, ticketID int64, reason string) (*domain.Ticket, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	updated, err := s.applyTransition(ctx, session, ticketID, transitionRule{
		event:     domain.EventReject,
		authorize: creatorOnly(session),
		patch: func(_ *domain.Ticket, _ time.Time) domain.TicketPatch {
			return domain.TicketPatch{ClearValidationRequestedAt: true}
		},
		note: reason,
	})
	if err != nil {
		return nil, err
	}

	if reason != "" {
		s.postSystemComment(ctx, updated.ID, session.UserID, reason)
	}
	s.notifyDeferred(ctx, events.EventTicketRejected, updated.ID, session.UserID, "")
	return updated, nil
}

// Cancel voids a ticket that is not yet closed. Only the creator may.
func (s *TicketService) Cancel(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, session, ticketID, transitionRule{
		event:     domain.EventCancel,
		authorize: creatorOnly(session),
	})
}

func creatorOnly(session domain.Session) func(*domain.Ticket) error {
	return func(current *domain.Ticket) error {
		if current.CreatedByID != session.UserID {
			return apperrors.NewForbidden("only the ticket creator may do this")
		}
		return nil
	}
}

// postSystemComment attaches the note of a transition to the thread. The
// transition is already committed, so a failure here is only logged.
func (s *TicketService) postSystemComment(ctx context.Context, ticketID, authorID int64, content string) {
	comment := &domain.Comment{
		TicketID:  ticketID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Warn("transition comment not saved", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
}
