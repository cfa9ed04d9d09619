package domain

import "time"

// TicketPriority enumerates how urgent a request is.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ClosedBy records who moved a ticket into resolved.
type ClosedBy string

const (
	ClosedByUser   ClosedBy = "user"
	ClosedByAdmin  ClosedBy = "admin"
	ClosedBySystem ClosedBy = "system"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                    int64
	Code                  string
	Title                 string
	Description           string
	Priority              TicketPriority
	Status                TicketStatus
	CategoryID            int64
	SubcategoryID         *int64
	WorkAreaID            *int64
	CampusID              *int64
	AttentionAreaID       int64
	CreatedByID           int64
	AssignedToID          *int64
	WatcherIDs            []int64
	ValidationRequestedAt *time.Time
	ClosedBy              *ClosedBy
	ClosedAt              *time.Time
	ClosedByUserID        *int64
	EmailThreadID         *string
	InitialMessageID      *string
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Derived per viewer on every read; never persisted.
	CommentCount       int
	UnreadCommentCount int
}

// IsWatcher reports whether userID is in the ticket's watcher set.
func (t *Ticket) IsWatcher(userID int64) bool {
	for _, id := range t.WatcherIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Ticket) IsAssignedTo(userID int64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// TicketPatch is a partial update of the lifecycle columns of a ticket.
// Nil pointers leave a column untouched; the Clear flags null it out.
type TicketPatch struct {
	Status                     *TicketStatus
	AssignedToID               *int64
	ClearAssignee              bool
	ValidationRequestedAt      *time.Time
	ClearValidationRequestedAt bool
	ClosedBy                   *ClosedBy
	ClosedAt                   *time.Time
	ClosedByUserID             *int64
	ClearClosure               bool
	UpdatedAt                  time.Time
}

// Apply copies the patch onto t. Stores that keep tickets in memory use
// it; SQL stores translate the same fields into a SET clause.
func (p TicketPatch) Apply(t *Ticket) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearAssignee {
		t.AssignedToID = nil
	} else if p.AssignedToID != nil {
		id := *p.AssignedToID
		t.AssignedToID = &id
	}
	if p.ClearValidationRequestedAt {
		t.ValidationRequestedAt = nil
	} else if p.ValidationRequestedAt != nil {
		at := *p.ValidationRequestedAt
		t.ValidationRequestedAt = &at
	}
	if p.ClearClosure {
		t.ClosedBy = nil
		t.ClosedAt = nil
		t.ClosedByUserID = nil
	} else {
		if p.ClosedBy != nil {
			by := *p.ClosedBy
			t.ClosedBy = &by
		}
		if p.ClosedAt != nil {
			at := *p.ClosedAt
			t.ClosedAt = &at
		}
		if p.ClosedByUserID != nil {
			id := *p.ClosedByUserID
			t.ClosedByUserID = &id
		}
	}
	if !p.UpdatedAt.IsZero() {
		t.UpdatedAt = p.UpdatedAt
	}
}
