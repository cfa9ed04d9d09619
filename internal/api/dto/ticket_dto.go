package dto

import (
	"time"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	CategoryID      int64                 `json:"category_id"`
	SubcategoryID   *int64                `json:"subcategory_id"`
	WorkAreaID      *int64                `json:"work_area_id"`
	CampusID        *int64                `json:"campus_id"`
	AttentionAreaID int64                 `json:"attention_area_id"`
	WatcherIDs      []int64               `json:"watcher_ids"`
	UploadToken     string                `json:"upload_token"`
}

// TicketResponse is the list and mutation view of a ticket.
type TicketResponse struct {
	ID                    int64                 `json:"id"`
	Code                  string                `json:"code"`
	Title                 string                `json:"title"`
	Description           string                `json:"description"`
	Priority              domain.TicketPriority `json:"priority"`
	Status                domain.TicketStatus   `json:"status"`
	CategoryID            int64                 `json:"category_id"`
	SubcategoryID         *int64                `json:"subcategory_id"`
	WorkAreaID            *int64                `json:"work_area_id"`
	CampusID              *int64                `json:"campus_id"`
	AttentionAreaID       int64                 `json:"attention_area_id"`
	CreatedByID           int64                 `json:"created_by_id"`
	AssignedToID          *int64                `json:"assigned_to_id"`
	WatcherIDs            []int64               `json:"watcher_ids"`
	ValidationRequestedAt *time.Time            `json:"validation_requested_at"`
	ClosedBy              *domain.ClosedBy      `json:"closed_by"`
	ClosedAt              *time.Time            `json:"closed_at"`
	ClosedByUserID        *int64                `json:"closed_by_user_id"`
	CommentCount          int                   `json:"comment_count"`
	UnreadCommentCount    int                   `json:"unread_comment_count"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// TicketDetailResponse adds the related people, catalog rows and files.
type TicketDetailResponse struct {
	TicketResponse
	Creator       UserSummary          `json:"creator"`
	Assignee      *UserSummary         `json:"assignee"`
	Watchers      []UserSummary        `json:"watchers"`
	AttentionArea CatalogRef           `json:"attention_area"`
	Category      *CatalogRef          `json:"category"`
	Subcategory   *CatalogRef          `json:"subcategory"`
	Campus        *CatalogRef          `json:"campus"`
	Attachments   []AttachmentResponse `json:"attachments"`
}

// UserSummary is the public face of a user inside ticket payloads.
type UserSummary struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// CatalogRef names a catalog row.
type CatalogRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DashboardResponse summarizes the caller's visible tickets.
type DashboardResponse struct {
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
	Total    int                         `json:"total"`
	Unread   int                         `json:"unread"`
}

// WatchersRequest replaces the watcher set.
type WatchersRequest struct {
	WatcherIDs []int64 `json:"watcher_ids"`
}

// AssignRequest names the agent an admin hands a ticket to.
type AssignRequest struct {
	AssigneeID int64 `json:"assignee_id"`
}

// StatusRequest is the agent status override.
type StatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// ValidationRequest carries the optional note sent with a validation request.
type ValidationRequest struct {
	Message string `json:"message"`
}

// RejectRequest carries the optional reason for a rejection.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID         int64                `json:"id"`
	Event      domain.TicketEvent   `json:"event"`
	FromStatus *domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus  `json:"to_status"`
	ActorID    *int64               `json:"actor_id"`
	Note       string               `json:"note,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// AttentionAreaResponse is a routing target for new tickets.
type AttentionAreaResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	IsAcceptingTickets bool   `json:"is_accepting_tickets"`
}
