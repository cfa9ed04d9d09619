package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// LogNotifier writes notifications to the log instead of sending them.
// It is used when no mail API is configured.
type LogNotifier struct {
	logger        *zap.Logger
	publicBaseURL string
}

// NewLogNotifier creates the notifier.
func NewLogNotifier(logger *zap.Logger, publicBaseURL string) *LogNotifier {
	return &LogNotifier{logger: logger, publicBaseURL: publicBaseURL}
}

func (n *LogNotifier) NotifyCreated(ctx context.Context, snap domain.TicketSnapshot) (Result, error) {
	return n.log(Compose(KindCreated, snap, "", n.publicBaseURL))
}

func (n *LogNotifier) NotifyAssigned(ctx context.Context, snap domain.TicketSnapshot) (Result, error) {
	return n.log(Compose(KindAssigned, snap, "", n.publicBaseURL))
}

func (n *LogNotifier) NotifyValidationRequested(ctx context.Context, snap domain.TicketSnapshot, message string) (Result, error) {
	return n.log(Compose(KindValidationRequested, snap, message, n.publicBaseURL))
}

func (n *LogNotifier) NotifyResolved(ctx context.Context, snap domain.TicketSnapshot) (Result, error) {
	return n.log(Compose(KindResolved, snap, "", n.publicBaseURL))
}

func (n *LogNotifier) NotifyRejected(ctx context.Context, snap domain.TicketSnapshot) (Result, error) {
	return n.log(Compose(KindRejected, snap, "", n.publicBaseURL))
}

func (n *LogNotifier) log(msg Message) (Result, error) {
	n.logger.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("ticket_code", msg.Snapshot.Ticket.Code),
		zap.String("subject", msg.Subject),
		zap.Strings("to", msg.Recipients.To),
		zap.Strings("cc", msg.Recipients.CC),
		zap.String("thread_id", msg.ThreadID),
	)
	return Result{}, nil
}
