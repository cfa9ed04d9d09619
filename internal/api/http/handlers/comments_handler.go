package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/r3-fresh/tickets-management-sub000/internal/api/dto"
	"github.com/r3-fresh/tickets-management-sub000/internal/service"
	apperrors "github.com/r3-fresh/tickets-management-sub000/pkg/util/errorutil"
)

// CommentsHandler serves ticket threads and attachments.
type CommentsHandler struct {
	service *service.TicketService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(ticketService *service.TicketService) *CommentsHandler {
	return &CommentsHandler{service: ticketService}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), id, req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.UserContext(), id)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RegisterUpload POST /attachments.
func (h *CommentsHandler) RegisterUpload(c *fiber.Ctx) error {
	var req dto.UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attachment, err := h.service.RegisterUpload(c.UserContext(), service.UploadInput{
		UploadToken: req.UploadToken,
		FileName:    req.FileName,
		StorageKey:  req.StorageKey,
		MimeType:    req.MimeType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(*attachment)})
}

// LinkAttachments POST /tickets/:id/attachments/link.
func (h *CommentsHandler) LinkAttachments(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.LinkAttachmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	linked, err := h.service.LinkAttachments(c.UserContext(), id, req.UploadToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"linked": linked}})
}
