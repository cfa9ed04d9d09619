package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketViewRepository stores per-user read watermarks.
type TicketViewRepository interface {
	Touch(ctx context.Context, userID, ticketID int64, at time.Time) error
}

type ticketViewRepository struct {
	pool *pgxpool.Pool
}

// NewTicketViewRepository builds repository.
func NewTicketViewRepository(pool *pgxpool.Pool) TicketViewRepository {
	return &ticketViewRepository{pool: pool}
}

// Touch upserts the watermark. It never moves backwards.
func (r *ticketViewRepository) Touch(ctx context.Context, userID, ticketID int64, at time.Time) error {
	const query = `
        INSERT INTO ticket_views (user_id, ticket_id, last_viewed_at) VALUES ($1,$2,$3)
        ON CONFLICT (user_id, ticket_id)
        DO UPDATE SET last_viewed_at = GREATEST(ticket_views.last_viewed_at, EXCLUDED.last_viewed_at)`
	_, err := r.pool.Exec(ctx, query, userID, ticketID, at)
	return err
}
