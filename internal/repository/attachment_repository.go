package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	CreateDetached(ctx context.Context, attachment *domain.Attachment) error
	// LinkByToken attaches every unlinked upload of uploaderID carrying token
	// to ticketID and reports how many rows moved.
	LinkByToken(ctx context.Context, ticketID, uploaderID int64, token string) (int64, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) CreateDetached(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (upload_token, uploaded_by_id, file_name, storage_key, mime_type, size_bytes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		attachment.UploadToken,
		attachment.UploadedByID,
		attachment.FileName,
		attachment.StorageKey,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.CreatedAt,
	).Scan(&attachment.ID)
}

func (r *attachmentRepository) LinkByToken(ctx context.Context, ticketID, uploaderID int64, token string) (int64, error) {
	const query = `
        UPDATE attachments SET ticket_id=$1
        WHERE upload_token=$2 AND uploaded_by_id=$3 AND ticket_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, ticketID, token, uploaderID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, upload_token, uploaded_by_id, file_name, storage_key, mime_type, size_bytes, created_at
        FROM attachments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.UploadToken,
			&attachment.UploadedByID,
			&attachment.FileName,
			&attachment.StorageKey,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
