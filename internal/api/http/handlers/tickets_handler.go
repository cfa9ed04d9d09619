package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/r3-fresh/tickets-management-sub000/internal/api/dto"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/service"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// TicketsHandler manages ticket read and edit endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		CategoryID:      req.CategoryID,
		SubcategoryID:   req.SubcategoryID,
		WorkAreaID:      req.WorkAreaID,
		CampusID:        req.CampusID,
		AttentionAreaID: req.AttentionAreaID,
		WatcherIDs:      req.WatcherIDs,
		UploadToken:     req.UploadToken,
	}
	ticket, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	input, err := parseTicketListQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Dashboard GET /tickets/dashboard.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		ByStatus: dashboard.ByStatus,
		Total:    dashboard.Total,
		Unread:   dashboard.Unread,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateWatchers PUT /tickets/:id/watchers.
func (h *TicketsHandler) UpdateWatchers(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.WatchersRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateWatchers(c.UserContext(), id, req.WatcherIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func parseTicketListQuery(c *fiber.Ctx) (service.TicketListInput, error) {
	input := service.TicketListInput{Scope: service.ListScope(strings.TrimSpace(c.Query("scope")))}
	for _, part := range splitList(c.Query("status")) {
		input.Statuses = append(input.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		input.Priorities = append(input.Priorities, domain.TicketPriority(part))
	}
	if raw := c.Query("attention_area_id"); raw != "" {
		areaID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || areaID <= 0 {
			return input, apperrors.NewValidationError("invalid attention_area_id", map[string]any{"attention_area_id": raw})
		}
		input.AttentionAreaID = &areaID
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		input.SearchTerm = &q
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize
	return input, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func ticketID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": raw})
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// ListAttentionAreas GET /attention-areas.
func (h *TicketsHandler) ListAttentionAreas(c *fiber.Ctx) error {
	areas, err := h.service.ListAttentionAreas(c.UserContext(), c.QueryBool("include_closed", false))
	if err != nil {
		return err
	}
	items := make([]dto.AttentionAreaResponse, 0, len(areas))
	for _, a := range areas {
		items = append(items, dto.AttentionAreaResponse{ID: a.ID, Name: a.Name, IsAcceptingTickets: a.IsAcceptingTickets})
	}
	return c.JSON(fiber.Map{"data": items})
}
