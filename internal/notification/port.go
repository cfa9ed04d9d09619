// Package notification turns lifecycle events into outbound messages.
// Delivery is best effort: callers log failures and move on.
package notification

import (
	"context"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// Kind names the lifecycle moment a notification reports.
type Kind string

const (
	KindCreated             Kind = "created"
	KindAssigned            Kind = "assigned"
	KindValidationRequested Kind = "validation_requested"
	KindResolved            Kind = "resolved"
	KindRejected            Kind = "rejected"
)

// Result carries the threading identifiers assigned by the mail provider.
// Both fields may be empty.
type Result struct {
	ThreadID  string
	MessageID string
}

// Port is the outbound notification contract used by the lifecycle.
type Port interface {
	NotifyCreated(ctx context.Context, snap domain.TicketSnapshot) (Result, error)
	NotifyAssigned(ctx context.Context, snap domain.TicketSnapshot) (Result, error)
	NotifyValidationRequested(ctx context.Context, snap domain.TicketSnapshot, message string) (Result, error)
	NotifyResolved(ctx context.Context, snap domain.TicketSnapshot) (Result, error)
	NotifyRejected(ctx context.Context, snap domain.TicketSnapshot) (Result, error)
}
