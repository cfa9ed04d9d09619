package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// Visibility restricts a listing to tickets a user is involved with: created,
// assigned, watched, or routed to the user's attention area.
type Visibility struct {
	UserID          int64
	AttentionAreaID *int64
}

// TicketFilter captures list and dashboard parameters.
type TicketFilter struct {
	CreatedByID     *int64
	AssignedToID    *int64
	WatcherID       *int64
	AttentionAreaID *int64
	VisibleTo       *Visibility
	Statuses        []domain.TicketStatus
	Priorities      []domain.TicketPriority
	SearchTerm      *string
	Limit           int
	Offset          int
}

// MutationFunc inspects the locked, freshly read ticket and returns the patch
// to apply plus an optional history entry. Returning an error aborts the
// mutation without writing anything.
type MutationFunc func(current *domain.Ticket) (domain.TicketPatch, *domain.TicketHistory, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket, its watchers and the history entry in one
	// transaction. An empty Code is allocated from the per-year counter in
	// that same transaction.
	Create(ctx context.Context, ticket *domain.Ticket, history *domain.TicketHistory) error
	// GetByID loads a ticket with comment counts computed for viewerID.
	GetByID(ctx context.Context, id, viewerID int64) (*domain.Ticket, error)
	Mutate(ctx context.Context, id int64, fn MutationFunc) (*domain.Ticket, error)
	List(ctx context.Context, viewerID int64, filter TicketFilter) ([]domain.Ticket, error)
	Dashboard(ctx context.Context, viewerID int64, filter TicketFilter) (domain.TicketDashboard, error)
	ReplaceWatchers(ctx context.Context, id int64, watcherIDs []int64, at time.Time) error
	// SetEmailThread stores thread identifiers unless the ticket already has a thread.
	SetEmailThread(ctx context.Context, id int64, threadID, messageID string) error
}

const ticketColumns = `
        t.id, t.ticket_code, t.title, t.description, t.priority, t.status,
        t.category_id, t.subcategory_id, t.work_area_id, t.campus_id, t.attention_area_id,
        t.created_by_id, t.assigned_to_id, t.validation_requested_at,
        t.closed_by, t.closed_at, t.closed_by_user_id, t.email_thread_id, t.initial_message_id,
        t.created_at, t.updated_at,
        COALESCE((SELECT array_agg(w.user_id ORDER BY w.user_id) FROM ticket_watchers w WHERE w.ticket_id = t.id), '{}') AS watcher_ids`

// unreadCountsSQL is the single definition of the per-viewer comment counts.
// The viewer id is always bound to $1. A comment is unread when somebody else
// wrote it after max(last view, ticket creation).
const unreadCountsSQL = `
        (SELECT COUNT(*) FROM ticket_comments c WHERE c.ticket_id = t.id) AS comment_count,
        (SELECT COUNT(*) FROM ticket_comments c
          WHERE c.ticket_id = t.id
            AND c.author_id <> $1
            AND c.created_at > GREATEST(t.created_at, COALESCE(
                (SELECT v.last_viewed_at FROM ticket_views v WHERE v.ticket_id = t.id AND v.user_id = $1),
                t.created_at))) AS unread_comment_count`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, history *domain.TicketHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if ticket.Code == "" {
		code, err := allocateTicketCode(ctx, tx, ticket.CreatedAt.Year())
		if err != nil {
			return fmt.Errorf("allocate ticket code: %w", err)
		}
		ticket.Code = code
	}

	const query = `
        INSERT INTO tickets (ticket_code, title, description, priority, status, category_id, subcategory_id,
            work_area_id, campus_id, attention_area_id, created_by_id, assigned_to_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id`
	if err := tx.QueryRow(ctx, query,
		ticket.Code,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.WorkAreaID,
		ticket.CampusID,
		ticket.AttentionAreaID,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID); err != nil {
		return err
	}

	if err := insertWatchers(ctx, tx, ticket.ID, ticket.WatcherIDs); err != nil {
		return err
	}
	if history != nil {
		history.TicketID = ticket.ID
		if err := insertHistory(ctx, tx, history); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// allocateTicketCode atomically bumps the counter for year, creating it on
// first use. Concurrent callers serialize on the counter row.
func allocateTicketCode(ctx context.Context, q querier, year int) (string, error) {
	const query = `
        INSERT INTO ticket_code_counters (year, last_value) VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET last_value = ticket_code_counters.last_value + 1
        RETURNING last_value`
	var seq int
	if err := q.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return "", err
	}
	return domain.FormatTicketCode(year, seq), nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id, viewerID int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM tickets t WHERE t.id=$2`, ticketColumns, unreadCountsSQL)
	row := r.pool.QueryRow(ctx, query, viewerID, id)
	return scanTicket(row, true)
}

func (r *ticketRepository) Mutate(ctx context.Context, id int64, fn MutationFunc) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets t WHERE t.id=$1`, ticketColumns)
	current, err := scanTicket(tx.QueryRow(ctx, query, id), false)
	if err != nil {
		return nil, err
	}

	patch, history, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := updateStatus(ctx, tx, id, patch); err != nil {
		return nil, err
	}
	if history != nil {
		history.TicketID = id
		if err := insertHistory(ctx, tx, history); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	patch.Apply(current)
	return current, nil
}

// updateStatus writes the lifecycle columns named by patch.
func updateStatus(ctx context.Context, q querier, id int64, patch domain.TicketPatch) error {
	args := &argList{}
	sets := []string{}

	if patch.Status != nil {
		sets = append(sets, "status="+args.add(*patch.Status))
	}
	if patch.ClearAssignee {
		sets = append(sets, "assigned_to_id=NULL")
	} else if patch.AssignedToID != nil {
		sets = append(sets, "assigned_to_id="+args.add(*patch.AssignedToID))
	}
	if patch.ClearValidationRequestedAt {
		sets = append(sets, "validation_requested_at=NULL")
	} else if patch.ValidationRequestedAt != nil {
		sets = append(sets, "validation_requested_at="+args.add(*patch.ValidationRequestedAt))
	}
	if patch.ClearClosure {
		sets = append(sets, "closed_by=NULL", "closed_at=NULL", "closed_by_user_id=NULL")
	} else {
		if patch.ClosedBy != nil {
			sets = append(sets, "closed_by="+args.add(*patch.ClosedBy))
		}
		if patch.ClosedAt != nil {
			sets = append(sets, "closed_at="+args.add(*patch.ClosedAt))
		}
		if patch.ClosedByUserID != nil {
			sets = append(sets, "closed_by_user_id="+args.add(*patch.ClosedByUserID))
		}
	}
	if patch.UpdatedAt.IsZero() {
		sets = append(sets, "updated_at=NOW()")
	} else {
		sets = append(sets, "updated_at="+args.add(patch.UpdatedAt))
	}

	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=%s`, strings.Join(sets, ", "), args.add(id))
	cmd, err := q.Exec(ctx, query, args.args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, viewerID int64, filter TicketFilter) ([]domain.Ticket, error) {
	args := &argList{}
	args.add(viewerID)
	where := buildTicketWhere(filter, args)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM tickets t WHERE %s ORDER BY t.updated_at DESC, t.id DESC LIMIT %d OFFSET %d`,
		ticketColumns, unreadCountsSQL, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows, true)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Dashboard(ctx context.Context, viewerID int64, filter TicketFilter) (domain.TicketDashboard, error) {
	args := &argList{}
	args.add(viewerID)
	where := buildTicketWhere(filter, args)

	query := fmt.Sprintf(`
        SELECT counted.status, COUNT(*), COALESCE(SUM(counted.unread_comment_count), 0)
        FROM (SELECT t.status, %s FROM tickets t WHERE %s) counted
        GROUP BY counted.status`, unreadCountsSQL, where)

	dashboard := domain.TicketDashboard{ByStatus: map[domain.TicketStatus]int{}}
	for _, status := range domain.AllTicketStatuses {
		dashboard.ByStatus[status] = 0
	}

	rows, err := r.pool.Query(ctx, query, args.args...)
	if err != nil {
		return dashboard, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status domain.TicketStatus
			count  int
			unread int
		)
		if err := rows.Scan(&status, &count, &unread); err != nil {
			return dashboard, err
		}
		dashboard.ByStatus[status] = count
		dashboard.Total += count
		dashboard.Unread += unread
	}
	return dashboard, rows.Err()
}

func buildTicketWhere(filter TicketFilter, args *argList) string {
	clauses := []string{"1=1"}

	if filter.CreatedByID != nil {
		clauses = append(clauses, "t.created_by_id="+args.add(*filter.CreatedByID))
	}
	if filter.AssignedToID != nil {
		clauses = append(clauses, "t.assigned_to_id="+args.add(*filter.AssignedToID))
	}
	if filter.WatcherID != nil {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM ticket_watchers w WHERE w.ticket_id = t.id AND w.user_id = %s)", args.add(*filter.WatcherID)))
	}
	if filter.AttentionAreaID != nil {
		clauses = append(clauses, "t.attention_area_id="+args.add(*filter.AttentionAreaID))
	}
	if v := filter.VisibleTo; v != nil {
		user := args.add(v.UserID)
		involved := []string{
			"t.created_by_id=" + user,
			"t.assigned_to_id=" + user,
			fmt.Sprintf("EXISTS (SELECT 1 FROM ticket_watchers w WHERE w.ticket_id = t.id AND w.user_id = %s)", user),
		}
		if v.AttentionAreaID != nil {
			involved = append(involved, "t.attention_area_id="+args.add(*v.AttentionAreaID))
		}
		clauses = append(clauses, "("+strings.Join(involved, " OR ")+")")
	}
	if len(filter.Statuses) > 0 {
		values := make([]any, len(filter.Statuses))
		for i, status := range filter.Statuses {
			values[i] = status
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", args.addAll(values)))
	}
	if len(filter.Priorities) > 0 {
		values := make([]any, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			values[i] = pr
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", args.addAll(values)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		placeholder := args.add("%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.title) LIKE %s OR LOWER(t.description) LIKE %s OR LOWER(t.ticket_code) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	return strings.Join(clauses, " AND ")
}

func (r *ticketRepository) ReplaceWatchers(ctx context.Context, id int64, watcherIDs []int64, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=$1 WHERE id=$2`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ticket_watchers WHERE ticket_id=$1`, id); err != nil {
		return err
	}
	if err := insertWatchers(ctx, tx, id, watcherIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// insertWatchers collapses duplicate ids through the primary key.
func insertWatchers(ctx context.Context, q querier, ticketID int64, watcherIDs []int64) error {
	if len(watcherIDs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO ticket_watchers (ticket_id, user_id)
        SELECT $1, unnest($2::bigint[])
        ON CONFLICT DO NOTHING`
	_, err := q.Exec(ctx, query, ticketID, watcherIDs)
	return err
}

func (r *ticketRepository) SetEmailThread(ctx context.Context, id int64, threadID, messageID string) error {
	const query = `
        UPDATE tickets SET email_thread_id=$2, initial_message_id=COALESCE(initial_message_id, NULLIF($3, ''))
        WHERE id=$1 AND email_thread_id IS NULL`
	_, err := r.pool.Exec(ctx, query, id, threadID, messageID)
	return err
}

func scanTicket(row pgx.Row, withCounts bool) (*domain.Ticket, error) {
	var ticket domain.Ticket
	dest := []any{
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CategoryID,
		&ticket.SubcategoryID,
		&ticket.WorkAreaID,
		&ticket.CampusID,
		&ticket.AttentionAreaID,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.ValidationRequestedAt,
		&ticket.ClosedBy,
		&ticket.ClosedAt,
		&ticket.ClosedByUserID,
		&ticket.EmailThreadID,
		&ticket.InitialMessageID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.WatcherIDs,
	}
	if withCounts {
		dest = append(dest, &ticket.CommentCount, &ticket.UnreadCommentCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &ticket, nil
}
