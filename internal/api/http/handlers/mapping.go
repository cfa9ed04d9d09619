package handlers

import (
	"github.com/r3-fresh/tickets-management-sub000/internal/api/dto"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/service"
)

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	watchers := t.WatcherIDs
	if watchers == nil {
		watchers = []int64{}
	}
	return dto.TicketResponse{
		ID:                    t.ID,
		Code:                  t.Code,
		Title:                 t.Title,
		Description:           t.Description,
		Priority:              t.Priority,
		Status:                t.Status,
		CategoryID:            t.CategoryID,
		SubcategoryID:         t.SubcategoryID,
		WorkAreaID:            t.WorkAreaID,
		CampusID:              t.CampusID,
		AttentionAreaID:       t.AttentionAreaID,
		CreatedByID:           t.CreatedByID,
		AssignedToID:          t.AssignedToID,
		WatcherIDs:            watchers,
		ValidationRequestedAt: t.ValidationRequestedAt,
		ClosedBy:              t.ClosedBy,
		ClosedAt:              t.ClosedAt,
		ClosedByUserID:        t.ClosedByUserID,
		CommentCount:          t.CommentCount,
		UnreadCommentCount:    t.UnreadCommentCount,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func ticketDetail(d *service.TicketDetail) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		TicketResponse: ticketResponse(&d.Ticket),
		Creator:        userSummary(d.Creator),
		Watchers:       make([]dto.UserSummary, 0, len(d.Watchers)),
		AttentionArea:  dto.CatalogRef{ID: d.AttentionArea.ID, Name: d.AttentionArea.Name},
		Attachments:    make([]dto.AttachmentResponse, 0, len(d.Attachments)),
	}
	if d.Assignee != nil {
		assignee := userSummary(*d.Assignee)
		resp.Assignee = &assignee
	}
	for _, w := range d.Watchers {
		resp.Watchers = append(resp.Watchers, userSummary(w))
	}
	if d.Category != nil {
		resp.Category = &dto.CatalogRef{ID: d.Category.ID, Name: d.Category.Name}
	}
	if d.Subcategory != nil {
		resp.Subcategory = &dto.CatalogRef{ID: d.Subcategory.ID, Name: d.Subcategory.Name}
	}
	if d.Campus != nil {
		resp.Campus = &dto.CatalogRef{ID: d.Campus.ID, Name: d.Campus.Name}
	}
	for _, a := range d.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse(a))
	}
	return resp
}

func userSummary(u domain.User) dto.UserSummary {
	return dto.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func commentResponse(c *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}

func attachmentResponse(a domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          a.ID,
		TicketID:    a.TicketID,
		UploadToken: a.UploadToken,
		FileName:    a.FileName,
		StorageKey:  a.StorageKey,
		MimeType:    a.MimeType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.HistoryResponse {
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryResponse{
			ID:         entry.ID,
			Event:      entry.Event,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			ActorID:    entry.ActorID,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
