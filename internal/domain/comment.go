package domain

import "time"

// Comment is an immutable entry in a ticket thread.
type Comment struct {
	ID         int64
	TicketID   int64
	AuthorID   int64
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}

// TicketView is a viewer's read watermark on a ticket.
type TicketView struct {
	UserID       int64
	TicketID     int64
	LastViewedAt time.Time
}

// Attachment stores metadata for uploaded files. TicketID stays nil until
// the upload is linked to a ticket.
type Attachment struct {
	ID           int64
	TicketID     *int64
	UploadToken  string
	UploadedByID int64
	FileName     string
	StorageKey   string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}
