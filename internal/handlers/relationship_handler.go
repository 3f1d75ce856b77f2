package handlers

import (
	"errors"

	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type RelationshipHandler struct {
	relationshipService *services.RelationshipService
}

func NewRelationshipHandler(relationshipService *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

func (h *RelationshipHandler) Follow(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	err = h.relationshipService.Follow(c.Context(), p, c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrBlockedRelation) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "Following"})
}

func (h *RelationshipHandler) Unfollow(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.relationshipService.Unfollow(c.Context(), p, c.Params("id")); err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "Unfollowed"})
}

func (h *RelationshipHandler) Block(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	err = h.relationshipService.Block(c.Context(), p, c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrSelfBlock) {
			return badRequest(c, err.Error())
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "Blocked"})
}

func (h *RelationshipHandler) Unblock(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.relationshipService.Unblock(c.Context(), p, c.Params("id")); err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "Unblocked"})
}
