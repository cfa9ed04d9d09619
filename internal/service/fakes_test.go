package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/notification"
	"github.com/r3-fresh/tickets-management-sub000/internal/repository"
	"github.com/r3-fresh/tickets-management-sub000/internal/worker"
)

// memDB is an in-memory stand-in for the Postgres schema. Each repository
// fake below is a view over it so they share one lock.
type memDB struct {
	mu          sync.Mutex
	nextID      int64
	tickets     map[int64]*domain.Ticket
	counters    map[int]int
	comments    []domain.Comment
	views       map[[2]int64]time.Time
	history     []domain.TicketHistory
	attachments []domain.Attachment
	users       map[int64]domain.User
	areas       map[int64]domain.AttentionArea
	categories  map[int64]domain.Category
	subcats     map[int64]domain.Subcategory
	campuses    map[int64]domain.Campus
	workAreas   map[int64]domain.WorkArea
}

func newMemDB() *memDB {
	return &memDB{
		tickets:    map[int64]*domain.Ticket{},
		counters:   map[int]int{},
		views:      map[[2]int64]time.Time{},
		users:      map[int64]domain.User{},
		areas:      map[int64]domain.AttentionArea{},
		categories: map[int64]domain.Category{},
		subcats:    map[int64]domain.Subcategory{},
		campuses:   map[int64]domain.Campus{},
		workAreas:  map[int64]domain.WorkArea{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	c.WatcherIDs = append([]int64(nil), t.WatcherIDs...)
	return &c
}

// withCounts must be called with db.mu held.
func (db *memDB) withCounts(t *domain.Ticket, viewerID int64) *domain.Ticket {
	c := cloneTicket(t)
	var thread []domain.Comment
	for _, cm := range db.comments {
		if cm.TicketID == t.ID {
			thread = append(thread, cm)
		}
	}
	var lastViewed *time.Time
	if at, ok := db.views[[2]int64{viewerID, t.ID}]; ok {
		lastViewed = &at
	}
	c.CommentCount = len(thread)
	c.UnreadCommentCount = domain.UnreadCommentCount(t.CreatedAt, lastViewed, viewerID, thread)
	return c
}

type memTickets struct{ db *memDB }

func (r memTickets) Create(_ context.Context, ticket *domain.Ticket, history *domain.TicketHistory) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if ticket.Code == "" {
		year := ticket.CreatedAt.Year()
		db.counters[year]++
		ticket.Code = domain.FormatTicketCode(year, db.counters[year])
	}
	ticket.ID = db.id()
	db.tickets[ticket.ID] = cloneTicket(ticket)
	if history != nil {
		history.TicketID = ticket.ID
		history.ID = db.id()
		db.history = append(db.history, *history)
	}
	return nil
}

func (r memTickets) GetByID(_ context.Context, id, viewerID int64) (*domain.Ticket, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return db.withCounts(t, viewerID), nil
}

func (r memTickets) Mutate(_ context.Context, id int64, fn repository.MutationFunc) (*domain.Ticket, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	stored, ok := db.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	patch, history, err := fn(cloneTicket(stored))
	if err != nil {
		return nil, err
	}
	patch.Apply(stored)
	if history != nil {
		history.TicketID = id
		history.ID = db.id()
		db.history = append(db.history, *history)
	}
	return cloneTicket(stored), nil
}

func (db *memDB) matches(t *domain.Ticket, f repository.TicketFilter) bool {
	if f.CreatedByID != nil && t.CreatedByID != *f.CreatedByID {
		return false
	}
	if f.AssignedToID != nil && !t.IsAssignedTo(*f.AssignedToID) {
		return false
	}
	if f.WatcherID != nil && !t.IsWatcher(*f.WatcherID) {
		return false
	}
	if f.AttentionAreaID != nil && t.AttentionAreaID != *f.AttentionAreaID {
		return false
	}
	if v := f.VisibleTo; v != nil {
		involved := t.CreatedByID == v.UserID || t.IsAssignedTo(v.UserID) || t.IsWatcher(v.UserID) ||
			(v.AttentionAreaID != nil && t.AttentionAreaID == *v.AttentionAreaID)
		if !involved {
			return false
		}
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Description+" "+t.Code), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func (r memTickets) List(_ context.Context, viewerID int64, f repository.TicketFilter) ([]domain.Ticket, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Ticket
	for _, t := range db.tickets {
		if db.matches(t, f) {
			out = append(out, *db.withCounts(t, viewerID))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memTickets) Dashboard(_ context.Context, viewerID int64, f repository.TicketFilter) (domain.TicketDashboard, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	d := domain.TicketDashboard{ByStatus: map[domain.TicketStatus]int{}}
	for _, s := range domain.AllTicketStatuses {
		d.ByStatus[s] = 0
	}
	for _, t := range db.tickets {
		if !db.matches(t, f) {
			continue
		}
		counted := db.withCounts(t, viewerID)
		d.ByStatus[t.Status]++
		d.Total++
		d.Unread += counted.UnreadCommentCount
	}
	return d, nil
}

func (r memTickets) ReplaceWatchers(_ context.Context, id int64, watcherIDs []int64, at time.Time) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	seen := map[int64]bool{}
	t.WatcherIDs = nil
	for _, w := range watcherIDs {
		if !seen[w] {
			seen[w] = true
			t.WatcherIDs = append(t.WatcherIDs, w)
		}
	}
	t.UpdatedAt = at
	return nil
}

func (r memTickets) SetEmailThread(_ context.Context, id int64, threadID, messageID string) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tickets[id]
	if !ok || t.EmailThreadID != nil {
		return nil
	}
	t.EmailThreadID = &threadID
	if messageID != "" && t.InitialMessageID == nil {
		t.InitialMessageID = &messageID
	}
	return nil
}

type memComments struct{ db *memDB }

func (r memComments) Create(_ context.Context, c *domain.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	r.db.comments = append(r.db.comments, *c)
	return nil
}

func (r memComments) ListByTicket(_ context.Context, ticketID int64, includeInternal bool) ([]domain.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Comment
	for _, c := range r.db.comments {
		if c.TicketID == ticketID && (includeInternal || !c.IsInternal) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memViews struct{ db *memDB }

func (r memViews) Touch(_ context.Context, userID, ticketID int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := [2]int64{userID, ticketID}
	if prev, ok := r.db.views[key]; !ok || at.After(prev) {
		r.db.views[key] = at
	}
	return nil
}

type memAttachments struct{ db *memDB }

func (r memAttachments) CreateDetached(_ context.Context, a *domain.Attachment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = r.db.id()
	r.db.attachments = append(r.db.attachments, *a)
	return nil
}

func (r memAttachments) LinkByToken(_ context.Context, ticketID, uploaderID int64, token string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for i := range r.db.attachments {
		a := &r.db.attachments[i]
		if a.TicketID == nil && a.UploadToken == token && a.UploadedByID == uploaderID {
			id := ticketID
			a.TicketID = &id
			n++
		}
	}
	return n, nil
}

func (r memAttachments) ListByTicket(_ context.Context, ticketID int64) ([]domain.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Attachment
	for _, a := range r.db.attachments {
		if a.TicketID != nil && *a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memHistory struct{ db *memDB }

func (r memHistory) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range r.db.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memUsers struct{ db *memDB }

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r memUsers) GetByIDs(_ context.Context, ids []int64) ([]domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) ListAgentsByArea(_ context.Context, areaID int64) ([]domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.User
	for _, u := range r.db.users {
		if u.IsActive && u.Role.HasAgentCapability() && u.AttentionAreaID != nil && *u.AttentionAreaID == areaID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memCatalog struct{ db *memDB }

func (r memCatalog) GetAttentionArea(_ context.Context, id int64) (*domain.AttentionArea, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.areas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r memCatalog) ListAttentionAreas(_ context.Context, acceptingOnly bool) ([]domain.AttentionArea, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.AttentionArea
	for _, a := range r.db.areas {
		if !acceptingOnly || a.IsAcceptingTickets {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memCatalog) GetCategory(_ context.Context, id int64) (*domain.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memCatalog) GetSubcategory(_ context.Context, id int64) (*domain.Subcategory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.subcats[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r memCatalog) GetCampus(_ context.Context, id int64) (*domain.Campus, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memCatalog) GetWorkArea(_ context.Context, id int64) (*domain.WorkArea, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.workAreas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &w, nil
}

type sentNotification struct {
	kind    notification.Kind
	snap    domain.TicketSnapshot
	message string
}

// fakeNotifier records every call. Setting err makes every send fail.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) record(kind notification.Kind, snap domain.TicketSnapshot, msg string) (notification.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{kind: kind, snap: snap, message: msg})
	if n.err != nil {
		return notification.Result{}, n.err
	}
	if kind == notification.KindCreated {
		return notification.Result{ThreadID: "thread-" + snap.Ticket.Code, MessageID: "<first@mail>"}, nil
	}
	return notification.Result{}, nil
}

func (n *fakeNotifier) NotifyCreated(_ context.Context, s domain.TicketSnapshot) (notification.Result, error) {
	return n.record(notification.KindCreated, s, "")
}

func (n *fakeNotifier) NotifyAssigned(_ context.Context, s domain.TicketSnapshot) (notification.Result, error) {
	return n.record(notification.KindAssigned, s, "")
}

func (n *fakeNotifier) NotifyValidationRequested(_ context.Context, s domain.TicketSnapshot, msg string) (notification.Result, error) {
	return n.record(notification.KindValidationRequested, s, msg)
}

func (n *fakeNotifier) NotifyResolved(_ context.Context, s domain.TicketSnapshot) (notification.Result, error) {
	return n.record(notification.KindResolved, s, "")
}

func (n *fakeNotifier) NotifyRejected(_ context.Context, s domain.TicketSnapshot) (notification.Result, error) {
	return n.record(notification.KindRejected, s, "")
}

func (n *fakeNotifier) kinds() []notification.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Kind, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.kind
	}
	return out
}

func (n *fakeNotifier) last() sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

// manualQueue holds deferred tasks until the test runs them.
type manualQueue struct {
	mu    sync.Mutex
	tasks []worker.Task
	names []string
}

func (q *manualQueue) Enqueue(name string, task worker.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	q.names = append(q.names, name)
	return nil
}

func (q *manualQueue) runAll() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, task := range tasks {
		task(context.Background())
	}
}

func (q *manualQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

var errMailDown = errors.New("mail api unavailable")
