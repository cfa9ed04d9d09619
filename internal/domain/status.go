package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen              TicketStatus = "open"
	TicketStatusInProgress        TicketStatus = "in_progress"
	TicketStatusPendingValidation TicketStatus = "pending_validation"
	TicketStatusResolved          TicketStatus = "resolved"
	TicketStatusVoided            TicketStatus = "voided"
)

// AllTicketStatuses lists every status in lifecycle order.
var AllTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPendingValidation,
	TicketStatusResolved,
	TicketStatusVoided,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingValidation,
		TicketStatusResolved, TicketStatusVoided:
		return true
	}
	return false
}

// IsTerminal reports whether no ordinary action may leave s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusVoided
}

// TicketEvent names an action that moves a ticket through its lifecycle.
type TicketEvent string

const (
	EventAssignSelf        TicketEvent = "assign_self"
	EventAssign            TicketEvent = "assign"
	EventUnassign          TicketEvent = "unassign"
	EventRequestValidation TicketEvent = "request_validation"
	EventApprove           TicketEvent = "approve"
	EventReject            TicketEvent = "reject"
	EventCancel            TicketEvent = "cancel"

	// Recorded in history only; they have no entry in the transition table.
	EventCreate    TicketEvent = "create"
	EventSetStatus TicketEvent = "set_status"
)

type transition struct {
	from []TicketStatus
	to   TicketStatus
}

// Direct status overrides are not in this table; they bypass it on purpose.
var transitions = map[TicketEvent]transition{
	EventAssignSelf:        {from: []TicketStatus{TicketStatusOpen, TicketStatusInProgress}, to: TicketStatusInProgress},
	EventAssign:            {from: []TicketStatus{TicketStatusOpen, TicketStatusInProgress}, to: TicketStatusInProgress},
	EventUnassign:          {from: []TicketStatus{TicketStatusInProgress}, to: TicketStatusInProgress},
	EventRequestValidation: {from: []TicketStatus{TicketStatusInProgress}, to: TicketStatusPendingValidation},
	EventApprove:           {from: []TicketStatus{TicketStatusPendingValidation}, to: TicketStatusResolved},
	EventReject:            {from: []TicketStatus{TicketStatusPendingValidation}, to: TicketStatusInProgress},
	EventCancel:            {from: []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingValidation}, to: TicketStatusVoided},
}

// NextStatus returns the status event leads to from current, and false
// when the event is not allowed from that state.
func NextStatus(current TicketStatus, event TicketEvent) (TicketStatus, bool) {
	tr, ok := transitions[event]
	if !ok {
		return "", false
	}
	for _, candidate := range tr.from {
		if candidate == current {
			return tr.to, true
		}
	}
	return "", false
}
