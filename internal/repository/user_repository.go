package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// UserRepository defines read access to people known to the helpdesk.
// Accounts themselves are provisioned by the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
	// ListAgentsByArea returns active users with agent capability routed to areaID.
	ListAgentsByArea(ctx context.Context, areaID int64) ([]domain.User, error)
}

const userColumns = `id, name, email, role, attention_area_id, is_active, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *userRepository) ListAgentsByArea(ctx context.Context, areaID int64) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + ` FROM users
        WHERE attention_area_id=$1 AND role IN ('agent', 'admin') AND is_active = TRUE
        ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.AttentionAreaID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}
