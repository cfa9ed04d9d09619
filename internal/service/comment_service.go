package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// AddComment appends to the thread of a visible ticket. Internal notes
// need agent capability; voided tickets take no new comments.
func (s *TicketService) AddComment(ctx context.Context, ticketID int64, content string, internal bool) (*domain.Comment, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", map[string]any{"content": "required"})
	}

	ticket, err := s.visibleTicket(ctx, session, ticketID)
	if err != nil {
		return nil, err
	}
	if internal && !session.Role.HasAgentCapability() {
		return nil, apperrors.NewForbidden("internal comments require agent capability")
	}
	if ticket.Status == domain.TicketStatusVoided {
		return nil, apperrors.NewInvalidTransition("ticket is voided", map[string]any{"ticket_id": ticket.ID})
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   session.UserID,
		Content:    content,
		IsInternal: internal,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("comment added",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("comment_id", comment.ID),
		zap.Bool("internal", internal))
	return comment, nil
}

// ListComments returns the thread in creation order. Internal notes are
// hidden from callers without agent capability.
func (s *TicketService) ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID, session.Role.HasAgentCapability())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// UploadInput is metadata for a file already stored by the upload service.
type UploadInput struct {
	UploadToken string
	FileName    string
	StorageKey  string
	MimeType    string
	SizeBytes   int64
}

// RegisterUpload records a detached attachment for the caller. An empty
// token gets a fresh one, returned on the attachment.
func (s *TicketService) RegisterUpload(ctx context.Context, input UploadInput) (*domain.Attachment, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if strings.TrimSpace(input.FileName) == "" {
		details["file_name"] = "required"
	}
	if strings.TrimSpace(input.StorageKey) == "" {
		details["storage_key"] = "required"
	}
	if input.SizeBytes <= 0 {
		details["size_bytes"] = "must be positive"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid upload", details)
	}

	token := strings.TrimSpace(input.UploadToken)
	if token == "" {
		token = uuid.NewString()
	}
	mime := strings.TrimSpace(input.MimeType)
	if mime == "" {
		mime = "application/octet-stream"
	}

	attachment := &domain.Attachment{
		UploadToken:  token,
		UploadedByID: session.UserID,
		FileName:     strings.TrimSpace(input.FileName),
		StorageKey:   strings.TrimSpace(input.StorageKey),
		MimeType:     mime,
		SizeBytes:    input.SizeBytes,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.attachments.CreateDetached(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// LinkAttachments moves the caller's unlinked uploads carrying token onto
// a visible ticket and returns how many were linked.
func (s *TicketService) LinkAttachments(ctx context.Context, ticketID int64, token string) (int64, error) {
	session, err := s.access.RequireAuth(ctx)
	if err != nil {
		return 0, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, apperrors.NewValidationError("upload token is required", map[string]any{"upload_token": "required"})
	}
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return 0, err
	}
	linked, err := s.attachments.LinkByToken(ctx, ticketID, session.UserID, token)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return linked, nil
}
