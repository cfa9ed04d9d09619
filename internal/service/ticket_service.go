package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/clock"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/events"
	"github.com/r3-fresh/tickets-management-sub000/internal/observability"
	"github.com/r3-fresh/tickets-management-sub000/internal/repository"
	"github.com/r3-fresh/tickets-management-sub000/internal/worker"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// TaskQueue runs work after the current request has returned.
type TaskQueue interface {
	Enqueue(name string, task worker.Task) error
}

// TicketService owns the ticket lifecycle: creation, role-gated
// transitions, watchers, comments and the read side.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	views       repository.TicketViewRepository
	attachments repository.AttachmentRepository
	history     repository.TicketHistoryRepository
	users       repository.UserRepository
	catalog     repository.CatalogRepository
	codes       repository.TicketCodeAllocator
	access      AccessPort
	dispatcher  events.Dispatcher
	deferred    TaskQueue
	clock       clock.Clock
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
// CodeAllocator, Dispatcher, Deferred and Metrics are optional. Without a
// CodeAllocator the ticket store allocates codes itself; without Deferred,
// deferred notifications are published inline.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	ViewRepo       repository.TicketViewRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.TicketHistoryRepository
	UserRepo       repository.UserRepository
	CatalogRepo    repository.CatalogRepository
	CodeAllocator  repository.TicketCodeAllocator
	Access         AccessPort
	Dispatcher     events.Dispatcher
	Deferred       TaskQueue
	Clock          clock.Clock
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		views:       deps.ViewRepo,
		attachments: deps.AttachmentRepo,
		history:     deps.HistoryRepo,
		users:       deps.UserRepo,
		catalog:     deps.CatalogRepo,
		codes:       deps.CodeAllocator,
		access:      deps.Access,
		dispatcher:  deps.Dispatcher,
		deferred:    deps.Deferred,
		clock:       clk,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title           string
	Description     string
	Priority        domain.TicketPriority
	CategoryID      int64
	SubcategoryID   *int64
	WorkAreaID      *int64
	CampusID        *int64
	AttentionAreaID int64
	WatcherIDs      []int64
	// UploadToken links attachments registered before the ticket existed.
	UploadToken string
}

// TicketDetail is a ticket with the people and catalog rows around it.
type TicketDetail struct {
	domain.TicketSnapshot
	Attachments []domain.Attachment
}

// Create opens a ticket in the target attention area. The area must be
// accepting tickets; nothing is written otherwise.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	area, err := s.catalog.GetAttentionArea(ctx, input.AttentionAreaID)
	if err != nil {
		return nil, referenceErr(err, "attention_area_id", input.AttentionAreaID)
	}
	if !area.IsAcceptingTickets {
		return nil, apperrors.NewInvalidTransition("attention area is not accepting tickets",
			map[string]any{"attention_area_id": area.ID})
	}
	if err := s.validateCatalogRefs(ctx, input); err != nil {
		return nil, err
	}

	watchers := uniqueIDs(input.WatcherIDs)
	if err := s.requireUsersExist(ctx, watchers); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		Title:           input.Title,
		Description:     input.Description,
		Priority:        input.Priority,
		Status:          domain.TicketStatusOpen,
		CategoryID:      input.CategoryID,
		SubcategoryID:   input.SubcategoryID,
		WorkAreaID:      input.WorkAreaID,
		CampusID:        input.CampusID,
		AttentionAreaID: input.AttentionAreaID,
		CreatedByID:     session.UserID,
		WatcherIDs:      watchers,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if s.codes != nil {
		code, err := s.codes.AllocateNextTicketCode(ctx, now.Year())
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.Code = code
	}

	actorID := session.UserID
	entry := &domain.TicketHistory{
		ActorID:   &actorID,
		Event:     domain.EventCreate,
		ToStatus:  domain.TicketStatusOpen,
		CreatedAt: now,
	}
	if err := s.tickets.Create(ctx, ticket, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	if token := strings.TrimSpace(input.UploadToken); token != "" {
		if _, err := s.attachments.LinkByToken(ctx, ticket.ID, session.UserID, token); err != nil {
			s.logger.Warn("link attachments on create failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	s.recordTransition(ticket, session.UserID, domain.EventCreate, nil)
	s.notifyNow(ctx, events.EventTicketCreated, ticket.ID, session.UserID)
	return ticket, nil
}

func validateCreateInput(input TicketCreateInput) error {
	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	} else if len(input.Title) > 255 {
		details["title"] = "must be at most 255 characters"
	}
	if input.Description == "" {
		details["description"] = "required"
	}
	if !input.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical"
	}
	if input.CategoryID <= 0 {
		details["category_id"] = "required"
	}
	if input.AttentionAreaID <= 0 {
		details["attention_area_id"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func (s *TicketService) validateCatalogRefs(ctx context.Context, input TicketCreateInput) error {
	if _, err := s.catalog.GetCategory(ctx, input.CategoryID); err != nil {
		return referenceErr(err, "category_id", input.CategoryID)
	}
	if input.SubcategoryID != nil {
		sub, err := s.catalog.GetSubcategory(ctx, *input.SubcategoryID)
		if err != nil {
			return referenceErr(err, "subcategory_id", *input.SubcategoryID)
		}
		if sub.CategoryID != input.CategoryID {
			return apperrors.NewValidationError("subcategory does not belong to category",
				map[string]any{"subcategory_id": sub.ID, "category_id": input.CategoryID})
		}
	}
	if input.CampusID != nil {
		if _, err := s.catalog.GetCampus(ctx, *input.CampusID); err != nil {
			return referenceErr(err, "campus_id", *input.CampusID)
		}
	}
	if input.WorkAreaID != nil {
		if _, err := s.catalog.GetWorkArea(ctx, *input.WorkAreaID); err != nil {
			return referenceErr(err, "work_area_id", *input.WorkAreaID)
		}
	}
	return nil
}

func (s *TicketService) requireUsersExist(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(found) == len(ids) {
		return nil
	}
	known := make(map[int64]bool, len(found))
	for _, u := range found {
		known[u.ID] = true
	}
	var missing []int64
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return apperrors.NewValidationError("unknown users", map[string]any{"user_ids": missing})
}

// GetTicket returns a visible ticket with its relations and moves the
// caller's read watermark to now.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*TicketDetail, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.visibleTicket(ctx, session, ticketID)
	if err != nil {
		return nil, err
	}

	if err := s.views.Touch(ctx, session.UserID, ticket.ID, s.clock.Now()); err != nil {
		return nil, apperrors.MapError(err)
	}

	snap, err := s.buildSnapshot(ctx, ticket, session.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{TicketSnapshot: snap, Attachments: attachments}, nil
}

// UpdateWatchers replaces the watcher set wholesale. Anyone who can see the
// ticket may edit it: admins, the creator, the assignee, agents of the area
// and current watchers.
func (s *TicketService) UpdateWatchers(ctx context.Context, ticketID int64, watcherIDs []int64) (*domain.Ticket, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return nil, err
	}

	watchers := uniqueIDs(watcherIDs)
	if err := s.requireUsersExist(ctx, watchers); err != nil {
		return nil, err
	}
	if err := s.tickets.ReplaceWatchers(ctx, ticketID, watchers, s.clock.Now()); err != nil {
		return nil, storeErr(err, ticketID)
	}

	s.logger.Info("ticket watchers updated",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("actor_id", session.UserID),
		zap.Int("watchers", len(watchers)))

	updated, err := s.tickets.GetByID(ctx, ticketID, session.UserID)
	if err != nil {
		return nil, storeErr(err, ticketID)
	}
	return updated, nil
}

// ListHistory returns the lifecycle audit trail of a visible ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// visibleTicket loads a ticket and checks read access: NotFound first,
// then Forbidden.
func (s *TicketService) visibleTicket(ctx context.Context, session domain.Session, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID, session.UserID)
	if err != nil {
		return nil, storeErr(err, ticketID)
	}
	if !canView(session, ticket) {
		return nil, apperrors.NewForbidden("ticket is not visible to the caller")
	}
	return ticket, nil
}

func (s *TicketService) recordTransition(ticket *domain.Ticket, actorID int64, event domain.TicketEvent, from *domain.TicketStatus) {
	s.metrics.RecordTransition(string(event))
	fields := []zap.Field{
		zap.Int64("ticket_id", ticket.ID),
		zap.String("ticket_code", ticket.Code),
		zap.String("event", string(event)),
		zap.String("status", string(ticket.Status)),
		zap.Int64("actor_id", actorID),
	}
	if from != nil {
		fields = append(fields, zap.String("from", string(*from)))
	}
	s.logger.Info("ticket transition", fields...)
}

// notifyNow publishes a notification event inline. Failures never reach
// the caller.
func (s *TicketService) notifyNow(ctx context.Context, eventType events.EventType, ticketID, actorID int64) {
	if s.dispatcher == nil {
		return
	}
	event, ok := s.prepareEvent(ctx, eventType, ticketID, actorID, "")
	if !ok {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// notifyDeferred reads the snapshot now, right after the commit, and
// publishes from the task queue once the request has returned.
func (s *TicketService) notifyDeferred(ctx context.Context, eventType events.EventType, ticketID, actorID int64, message string) {
	if s.dispatcher == nil {
		return
	}
	event, ok := s.prepareEvent(ctx, eventType, ticketID, actorID, message)
	if !ok {
		return
	}
	if s.deferred == nil {
		_ = s.dispatcher.Publish(ctx, event)
		return
	}
	err := s.deferred.Enqueue(string(eventType), func(taskCtx context.Context) {
		_ = s.dispatcher.Publish(taskCtx, event)
	})
	if err != nil {
		s.logger.Warn("deferred notification dropped",
			zap.String("event_type", string(eventType)),
			zap.Int64("ticket_id", ticketID),
			zap.Error(err))
	}
}

func (s *TicketService) prepareEvent(ctx context.Context, eventType events.EventType, ticketID, actorID int64, message string) (events.Event, bool) {
	snap, err := s.loadSnapshot(ctx, ticketID, actorID)
	if err != nil {
		s.logger.Warn("notification snapshot failed",
			zap.String("event_type", string(eventType)),
			zap.Int64("ticket_id", ticketID),
			zap.Error(err))
		return events.Event{}, false
	}
	return events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: s.clock.Now(),
		Snapshot:  snap,
		Message:   message,
	}, true
}

// loadSnapshot is the with-relations read of a ticket: a fresh row plus the
// people and catalog entries it references.
func (s *TicketService) loadSnapshot(ctx context.Context, ticketID, actorID int64) (domain.TicketSnapshot, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID, actorID)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	return s.buildSnapshot(ctx, ticket, actorID)
}

func (s *TicketService) buildSnapshot(ctx context.Context, ticket *domain.Ticket, actorID int64) (domain.TicketSnapshot, error) {
	snap := domain.TicketSnapshot{Ticket: *ticket}

	ids := append([]int64{ticket.CreatedByID, actorID}, ticket.WatcherIDs...)
	if ticket.AssignedToID != nil {
		ids = append(ids, *ticket.AssignedToID)
	}
	people, err := s.users.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return snap, err
	}
	byID := make(map[int64]domain.User, len(people))
	for _, u := range people {
		byID[u.ID] = u
	}

	snap.Creator = byID[ticket.CreatedByID]
	snap.Actor = byID[actorID]
	if ticket.AssignedToID != nil {
		if u, ok := byID[*ticket.AssignedToID]; ok {
			snap.Assignee = &u
		}
	}
	for _, id := range ticket.WatcherIDs {
		if u, ok := byID[id]; ok {
			snap.Watchers = append(snap.Watchers, u)
		}
	}

	if snap.AreaAgents, err = s.users.ListAgentsByArea(ctx, ticket.AttentionAreaID); err != nil {
		return snap, err
	}
	area, err := s.catalog.GetAttentionArea(ctx, ticket.AttentionAreaID)
	if err != nil {
		return snap, err
	}
	snap.AttentionArea = *area
	if snap.Category, err = s.catalog.GetCategory(ctx, ticket.CategoryID); err != nil {
		return snap, err
	}
	if ticket.SubcategoryID != nil {
		if snap.Subcategory, err = s.catalog.GetSubcategory(ctx, *ticket.SubcategoryID); err != nil {
			return snap, err
		}
	}
	if ticket.CampusID != nil {
		if snap.Campus, err = s.catalog.GetCampus(ctx, *ticket.CampusID); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// storeErr maps a missing ticket row to NotFound and passes domain errors
// through untouched.
func storeErr(err error, ticketID int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.MapError(err)
}

// referenceErr reports a dangling foreign key in user input.
func referenceErr(err error, field string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewValidationError("unknown reference", map[string]any{field: id})
	}
	return apperrors.MapError(err)
}

// uniqueIDs returns the positive ids of in, de-duplicated and sorted.
func uniqueIDs(in []int64) []int64 {
	seen := make(map[int64]bool, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func timePtr(t time.Time) *time.Time {
	return &t
}
