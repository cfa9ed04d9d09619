package dto

import "time"

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticket_id"`
	AuthorID   int64     `json:"author_id"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadRequest registers a file the upload service already stored.
type UploadRequest struct {
	UploadToken string `json:"upload_token"`
	FileName    string `json:"file_name"`
	StorageKey  string `json:"storage_key"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// LinkAttachmentsRequest moves uploads onto a ticket.
type LinkAttachmentsRequest struct {
	UploadToken string `json:"upload_token"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          int64     `json:"id"`
	TicketID    *int64    `json:"ticket_id"`
	UploadToken string    `json:"upload_token"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
