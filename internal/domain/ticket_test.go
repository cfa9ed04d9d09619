package domain

import (
	"testing"
	"time"
)

func TestTicketPatchApply(t *testing.T) {
	agent := int64(3)
	requested := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{
		Status:                TicketStatusPendingValidation,
		AssignedToID:          &agent,
		ValidationRequestedAt: &requested,
	}

	now := requested.Add(time.Hour)
	status := TicketStatusInProgress
	TicketPatch{Status: &status, ClearValidationRequestedAt: true, UpdatedAt: now}.Apply(ticket)

	if ticket.Status != TicketStatusInProgress {
		t.Errorf("status = %s", ticket.Status)
	}
	if ticket.ValidationRequestedAt != nil {
		t.Error("validation timestamp should be cleared")
	}
	if !ticket.IsAssignedTo(agent) {
		t.Error("assignee should be untouched")
	}
	if !ticket.UpdatedAt.Equal(now) {
		t.Errorf("updated at = %v", ticket.UpdatedAt)
	}

	TicketPatch{ClearAssignee: true, AssignedToID: &agent}.Apply(ticket)
	if ticket.AssignedToID != nil {
		t.Error("clear should win over set")
	}
}

func TestTicketPatchClearClosure(t *testing.T) {
	by := ClosedByAdmin
	at := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	user := int64(2)
	ticket := &Ticket{Status: TicketStatusResolved, ClosedBy: &by, ClosedAt: &at, ClosedByUserID: &user}

	status := TicketStatusInProgress
	TicketPatch{Status: &status, ClearClosure: true, ClosedBy: &by}.Apply(ticket)
	if ticket.ClosedBy != nil || ticket.ClosedAt != nil || ticket.ClosedByUserID != nil {
		t.Errorf("closure not cleared: %+v", ticket)
	}
}

func TestTicketIsWatcher(t *testing.T) {
	ticket := &Ticket{WatcherIDs: []int64{4, 9}}
	if !ticket.IsWatcher(9) {
		t.Error("9 should be a watcher")
	}
	if ticket.IsWatcher(5) {
		t.Error("5 should not be a watcher")
	}
}
