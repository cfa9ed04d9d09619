package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// TicketCodeAllocator hands out the next YYYY-#### code for a year. Codes
// are never reused; gaps are allowed.
type TicketCodeAllocator interface {
	AllocateNextTicketCode(ctx context.Context, year int) (string, error)
}

const ticketCodeKeyPrefix = "helpdesk:ticket_code:"

type redisCodeAllocator struct {
	client redis.Cmdable
}

// NewRedisCodeAllocator counts codes with INCR on one key per year.
func NewRedisCodeAllocator(client redis.Cmdable) TicketCodeAllocator {
	return &redisCodeAllocator{client: client}
}

func (a *redisCodeAllocator) AllocateNextTicketCode(ctx context.Context, year int) (string, error) {
	seq, err := a.client.Incr(ctx, fmt.Sprintf("%s%d", ticketCodeKeyPrefix, year)).Result()
	if err != nil {
		return "", fmt.Errorf("incr ticket code: %w", err)
	}
	return domain.FormatTicketCode(year, int(seq)), nil
}
