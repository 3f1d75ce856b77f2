package handlers

import (
	"errors"

	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messageService *services.MessageService
	threadService  *services.ThreadService
}

func NewMessageHandler(messageService *services.MessageService, threadService *services.ThreadService) *MessageHandler {
	return &MessageHandler{messageService: messageService, threadService: threadService}
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	opts := services.SendOptions{}
	if req.ReplyToID != nil {
		id, err := uuid.Parse(*req.ReplyToID)
		if err != nil {
			return badRequest(c, "reply_to_id must be a valid UUID")
		}
		ref, err := h.messageService.ReplyRefFor(c.Context(), id)
		if err != nil {
			return internalError(c)
		}
		opts.ReplyTo = ref
	}

	msg, err := h.messageService.Send(c.Context(), p, req.ToID, req.Body, opts)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return notFound(c, err)
		case errors.Is(err, services.ErrNoSender):
			return unauthorized(c)
		case errors.Is(err, services.ErrEmptyBody):
			return badRequest(c, err.Error())
		default:
			return internalError(c)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(*msg))
}

// Received returns the inbox grouped by sender.
func (h *MessageHandler) Received(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	groups, err := h.threadService.ReceivedGroups(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(groups)
}

// ReceivedDetail returns the messages from one sender and marks them read.
func (h *MessageHandler) ReceivedDetail(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	msgs, err := h.threadService.ReceivedDetail(c.Context(), p, c.Params("id"))
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toMessageResponses(msgs))
}

// Sent returns the sent box grouped by recipient.
func (h *MessageHandler) Sent(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	groups, err := h.threadService.SentGroups(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(groups)
}

func (h *MessageHandler) SentDetail(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	msgs, err := h.threadService.SentDetail(c.Context(), p, c.Params("id"))
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toMessageResponses(msgs))
}

func (h *MessageHandler) Timeline(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	msgs, err := h.messageService.Timeline(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toMessageResponses(msgs))
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	count, err := h.messageService.UnreadCount(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(dto.UnreadCountResponse{Count: count})
}

// Thread returns the full conversation containing a message, oldest first.
func (h *MessageHandler) Thread(c *fiber.Ctx) error {
	if _, err := identity.FromContext(c); err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "message id must be a valid UUID")
	}

	msgs, err := h.threadService.Thread(c.Context(), id)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toMessageResponses(msgs))
}

// Reply sends a message into the thread containing the given message.
func (h *MessageHandler) Reply(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "message id must be a valid UUID")
	}

	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg, err := h.threadService.Reply(c.Context(), p, id, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound), errors.Is(err, services.ErrUserNotFound):
			return notFound(c, err)
		case errors.Is(err, services.ErrEmptyBody):
			return badRequest(c, err.Error())
		default:
			return internalError(c)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(*msg))
}
