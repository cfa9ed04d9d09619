package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/events"
	"github.com/r3-fresh/tickets-management-sub000/internal/notification"
	"github.com/r3-fresh/tickets-management-sub000/internal/observability"
)

// ThreadStore records the mail thread a ticket's notifications belong to.
type ThreadStore interface {
	SetEmailThread(ctx context.Context, id int64, threadID, messageID string) error
}

// NotificationService turns lifecycle events into calls on the
// notification port. Every send is best effort: failures are counted and
// logged, never returned.
type NotificationService struct {
	dispatcher events.Dispatcher
	port       notification.Port
	threads    ThreadStore
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, port notification.Port, threads ThreadStore, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		port:       port,
		threads:    threads,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.port == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handle(notification.KindCreated,
		func(ctx context.Context, e events.Event) (notification.Result, error) {
			return n.port.NotifyCreated(ctx, e.Snapshot)
		}))
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handle(notification.KindAssigned,
		func(ctx context.Context, e events.Event) (notification.Result, error) {
			return n.port.NotifyAssigned(ctx, e.Snapshot)
		}))
	n.dispatcher.Subscribe(events.EventTicketValidationRequested, n.handle(notification.KindValidationRequested,
		func(ctx context.Context, e events.Event) (notification.Result, error) {
			return n.port.NotifyValidationRequested(ctx, e.Snapshot, e.Message)
		}))
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handle(notification.KindResolved,
		func(ctx context.Context, e events.Event) (notification.Result, error) {
			return n.port.NotifyResolved(ctx, e.Snapshot)
		}))
	n.dispatcher.Subscribe(events.EventTicketRejected, n.handle(notification.KindRejected,
		func(ctx context.Context, e events.Event) (notification.Result, error) {
			return n.port.NotifyRejected(ctx, e.Snapshot)
		}))
}

type sendFunc func(context.Context, events.Event) (notification.Result, error)

func (n *NotificationService) handle(kind notification.Kind, send sendFunc) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		start := time.Now()
		result, err := send(ctx, event)
		if err != nil {
			n.metrics.RecordNotification(string(kind), observability.OutcomeFailed)
			n.logger.Warn("notification failed",
				zap.String("kind", string(kind)),
				zap.Int64("ticket_id", event.TicketID),
				zap.String("event_id", event.ID),
				zap.Error(err))
			return nil
		}

		n.metrics.RecordNotification(string(kind), observability.OutcomeSent)
		n.logger.Info("notification sent",
			zap.String("kind", string(kind)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Duration("took", time.Since(start)))

		n.rememberThread(ctx, event.Snapshot.Ticket, result)
		return nil
	}
}

// rememberThread stores the provider thread the first time one comes back,
// so later notifications reply on it.
func (n *NotificationService) rememberThread(ctx context.Context, ticket domain.Ticket, result notification.Result) {
	if n.threads == nil || result.ThreadID == "" || ticket.EmailThreadID != nil {
		return
	}
	if err := n.threads.SetEmailThread(ctx, ticket.ID, result.ThreadID, result.MessageID); err != nil {
		n.logger.Warn("saving email thread failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
}
