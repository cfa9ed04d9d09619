package domain

import "time"

// TicketHistory is an append-only audit entry for a lifecycle transition.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ActorID    *int64
	Event      TicketEvent
	FromStatus *TicketStatus
	ToStatus   TicketStatus
	Note       string
	CreatedAt  time.Time
}
