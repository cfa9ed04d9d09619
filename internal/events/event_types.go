package events

import (
	"time"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated             EventType = "ticket_created"
	EventTicketAssigned            EventType = "ticket_assigned"
	EventTicketValidationRequested EventType = "ticket_validation_requested"
	EventTicketResolved            EventType = "ticket_resolved"
	EventTicketRejected            EventType = "ticket_rejected"
)

// Event represents a committed lifecycle change. Snapshot is read right
// after the commit so handlers never see a half-applied transition.
type Event struct {
	ID        string                `json:"id"`
	Type      EventType             `json:"type"`
	TicketID  int64                 `json:"ticket_id"`
	ActorID   int64                 `json:"actor_id"`
	Timestamp time.Time             `json:"timestamp"`
	Snapshot  domain.TicketSnapshot `json:"-"`
	// Message is the optional note attached to a validation request.
	Message string `json:"message,omitempty"`
}
