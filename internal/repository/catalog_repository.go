package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// CatalogRepository reads the reference data tickets point at.
type CatalogRepository interface {
	GetAttentionArea(ctx context.Context, id int64) (*domain.AttentionArea, error)
	ListAttentionAreas(ctx context.Context, acceptingOnly bool) ([]domain.AttentionArea, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	GetSubcategory(ctx context.Context, id int64) (*domain.Subcategory, error)
	GetCampus(ctx context.Context, id int64) (*domain.Campus, error)
	GetWorkArea(ctx context.Context, id int64) (*domain.WorkArea, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository builds the repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) GetAttentionArea(ctx context.Context, id int64) (*domain.AttentionArea, error) {
	const query = `
        SELECT id, name, is_accepting_tickets, created_at, updated_at
        FROM attention_areas WHERE id=$1`
	var area domain.AttentionArea
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&area.ID,
		&area.Name,
		&area.IsAcceptingTickets,
		&area.CreatedAt,
		&area.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *catalogRepository) ListAttentionAreas(ctx context.Context, acceptingOnly bool) ([]domain.AttentionArea, error) {
	const query = `
        SELECT id, name, is_accepting_tickets, created_at, updated_at
        FROM attention_areas WHERE ($1 = FALSE OR is_accepting_tickets = TRUE)
        ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, acceptingOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttentionArea
	for rows.Next() {
		var area domain.AttentionArea
		if err := rows.Scan(&area.ID, &area.Name, &area.IsAcceptingTickets, &area.CreatedAt, &area.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, area)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id=$1`, id).Scan(&category.ID, &category.Name); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepository) GetSubcategory(ctx context.Context, id int64) (*domain.Subcategory, error) {
	var sub domain.Subcategory
	if err := r.pool.QueryRow(ctx, `SELECT id, category_id, name FROM subcategories WHERE id=$1`, id).Scan(
		&sub.ID, &sub.CategoryID, &sub.Name); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *catalogRepository) GetCampus(ctx context.Context, id int64) (*domain.Campus, error) {
	var campus domain.Campus
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM campuses WHERE id=$1`, id).Scan(&campus.ID, &campus.Name); err != nil {
		return nil, err
	}
	return &campus, nil
}

func (r *catalogRepository) GetWorkArea(ctx context.Context, id int64) (*domain.WorkArea, error) {
	var area domain.WorkArea
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM work_areas WHERE id=$1`, id).Scan(&area.ID, &area.Name); err != nil {
		return nil, err
	}
	return &area, nil
}
