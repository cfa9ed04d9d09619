package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/auth"
	"github.com/r3-fresh/tickets-management-sub000/internal/clock"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/events"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

const (
	adminID     int64 = 1
	agentID     int64 = 2
	agent2ID    int64 = 3
	requesterID int64 = 4
	outsiderID  int64 = 5
	agentB      int64 = 6
	inactiveID  int64 = 7

	areaHelpdesk  int64 = 10
	areaFacility  int64 = 20
	areaSuspended int64 = 30
)

var fixtureStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	svc      *TicketService
	db       *memDB
	clk      *clock.Fake
	notifier *fakeNotifier
	queue    *manualQueue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	seedFixtures(db)

	clk := clock.NewFake(fixtureStart)
	notifier := &fakeNotifier{}
	queue := &manualQueue{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	tickets := memTickets{db}
	NewNotificationService(dispatcher, notifier, tickets, nil, zap.NewNop()).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CommentRepo:    memComments{db},
		ViewRepo:       memViews{db},
		AttachmentRepo: memAttachments{db},
		HistoryRepo:    memHistory{db},
		UserRepo:       memUsers{db},
		CatalogRepo:    memCatalog{db},
		Access:         auth.NewContextAccess(),
		Dispatcher:     dispatcher,
		Deferred:       queue,
		Clock:          clk,
		Logger:         zap.NewNop(),
	})
	return &harness{svc: svc, db: db, clk: clk, notifier: notifier, queue: queue}
}

func seedFixtures(db *memDB) {
	area := func(id int64) *int64 { return &id }
	users := []domain.User{
		{ID: adminID, Name: "Ada Admin", Email: "admin@example.edu", Role: domain.RoleAdmin, IsActive: true},
		{ID: agentID, Name: "Ana Agent", Email: "ana@example.edu", Role: domain.RoleAgent, AttentionAreaID: area(areaHelpdesk), IsActive: true},
		{ID: agent2ID, Name: "Bo Agent", Email: "bo@example.edu", Role: domain.RoleAgent, AttentionAreaID: area(areaHelpdesk), IsActive: true},
		{ID: requesterID, Name: "Rita Requester", Email: "rita@example.edu", Role: domain.RoleUser, IsActive: true},
		{ID: outsiderID, Name: "Otto Outsider", Email: "otto@example.edu", Role: domain.RoleUser, IsActive: true},
		{ID: agentB, Name: "Fay Facilities", Email: "fay@example.edu", Role: domain.RoleAgent, AttentionAreaID: area(areaFacility), IsActive: true},
		{ID: inactiveID, Name: "Ian Inactive", Email: "ian@example.edu", Role: domain.RoleAgent, AttentionAreaID: area(areaHelpdesk), IsActive: false},
	}
	for _, u := range users {
		db.users[u.ID] = u
	}
	db.areas[areaHelpdesk] = domain.AttentionArea{ID: areaHelpdesk, Name: "Helpdesk", IsAcceptingTickets: true}
	db.areas[areaFacility] = domain.AttentionArea{ID: areaFacility, Name: "Facilities", IsAcceptingTickets: true}
	db.areas[areaSuspended] = domain.AttentionArea{ID: areaSuspended, Name: "Legacy", IsAcceptingTickets: false}
	db.categories[1] = domain.Category{ID: 1, Name: "Hardware"}
	db.categories[2] = domain.Category{ID: 2, Name: "Software"}
	db.subcats[11] = domain.Subcategory{ID: 11, CategoryID: 1, Name: "Printer"}
	db.subcats[12] = domain.Subcategory{ID: 12, CategoryID: 2, Name: "Licenses"}
	db.campuses[1] = domain.Campus{ID: 1, Name: "North"}
	db.workAreas[1] = domain.WorkArea{ID: 1, Name: "Library"}
}

// as returns a context carrying the session of a fixture user.
func (h *harness) as(userID int64) context.Context {
	u := h.db.users[userID]
	return auth.WithSession(context.Background(), domain.Session{
		UserID:          u.ID,
		Role:            u.Role,
		AttentionAreaID: u.AttentionAreaID,
	})
}

func (h *harness) stored(id int64) domain.Ticket {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return *cloneTicket(h.db.tickets[id])
}

// open creates a helpdesk ticket as the requester and clears the
// notifications it produced.
func (h *harness) open(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := h.svc.Create(h.as(requesterID), TicketCreateInput{
		Title:           "Printer jams on every page",
		Description:     "Second floor printer, since Monday.",
		CategoryID:      1,
		AttentionAreaID: areaHelpdesk,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.notifier.mu.Lock()
	h.notifier.sent = nil
	h.notifier.mu.Unlock()
	return ticket
}

// pending drives a fresh ticket to pending_validation with agentID assigned.
func (h *harness) pending(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := h.open(t)
	if _, err := h.svc.AssignToSelf(h.as(agentID), ticket.ID); err != nil {
		t.Fatalf("AssignToSelf: %v", err)
	}
	updated, err := h.svc.RequestValidation(h.as(agentID), ticket.ID, "")
	if err != nil {
		t.Fatalf("RequestValidation: %v", err)
	}
	h.queue.runAll()
	h.notifier.mu.Lock()
	h.notifier.sent = nil
	h.notifier.mu.Unlock()
	return updated
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.IsCode(err, code) {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}
