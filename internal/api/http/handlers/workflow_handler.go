package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/r3-fresh/tickets-management-sub000/internal/api/dto"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/service"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// WorkflowHandler exposes the lifecycle transitions.
type WorkflowHandler struct {
	service *service.TicketService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(ticketService *service.TicketService) *WorkflowHandler {
	return &WorkflowHandler{service: ticketService}
}

type transitionFunc func(c *fiber.Ctx, id int64) (*domain.Ticket, error)

// run parses the ticket id, applies fn and renders the updated ticket.
func (h *WorkflowHandler) run(fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ticketID(c)
		if err != nil {
			return err
		}
		ticket, err := fn(c, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
	}
}

// AssignToSelf POST /tickets/:id/assign-self.
func (h *WorkflowHandler) AssignToSelf() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		return h.service.AssignToSelf(c.UserContext(), id)
	})
}

// AssignTo POST /tickets/:id/assign.
func (h *WorkflowHandler) AssignTo() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		var req dto.AssignRequest
		if err := c.BodyParser(&req); err != nil || req.AssigneeID <= 0 {
			return nil, apperrors.NewValidationError("assignee_id required", nil)
		}
		return h.service.AssignTo(c.UserContext(), id, req.AssigneeID)
	})
}

// Unassign POST /tickets/:id/unassign.
func (h *WorkflowHandler) Unassign() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		return h.service.Unassign(c.UserContext(), id)
	})
}

// SetStatus PUT /tickets/:id/status.
func (h *WorkflowHandler) SetStatus() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		var req dto.StatusRequest
		if err := c.BodyParser(&req); err != nil {
			return nil, apperrors.NewValidationError("invalid payload", nil)
		}
		return h.service.SetStatus(c.UserContext(), id, req.Status)
	})
}

// RequestValidation POST /tickets/:id/validation/request.
func (h *WorkflowHandler) RequestValidation() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		var req dto.ValidationRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return nil, apperrors.NewValidationError("invalid payload", nil)
			}
		}
		return h.service.RequestValidation(c.UserContext(), id, req.Message)
	})
}

// Approve POST /tickets/:id/validation/approve.
func (h *WorkflowHandler) Approve() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		return h.service.Approve(c.UserContext(), id)
	})
}

// Reject POST /tickets/:id/validation/reject.
func (h *WorkflowHandler) Reject() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		var req dto.RejectRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return nil, apperrors.NewValidationError("invalid payload", nil)
			}
		}
		return h.service.Reject(c.UserContext(), id, req.Reason)
	})
}

// Cancel POST /tickets/:id/cancel.
func (h *WorkflowHandler) Cancel() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id int64) (*domain.Ticket, error) {
		return h.service.Cancel(c.UserContext(), id)
	})
}
