package handlers

import (
	"errors"

	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService         *services.UserService
	relationshipService *services.RelationshipService
}

func NewUserHandler(userService *services.UserService, relationshipService *services.RelationshipService) *UserHandler {
	return &UserHandler{userService: userService, relationshipService: relationshipService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	snap, err := h.userService.Me(c.Context(), p)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, err)
		}
		return internalError(c)
	}
	return c.JSON(snap)
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.userService.Profile(c.Context(), p, c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, err)
		}
		return internalError(c)
	}
	return c.JSON(profile)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.Context(), p, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, err)
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(dto.UserResponse{
		UserID: user.UserID,
		Name:   user.Name,
		Avatar: user.Avatar,
	})
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "user_id query parameter is required")
	}

	summary, err := h.userService.Search(c.Context(), p, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, err)
		}
		return internalError(c)
	}
	return c.JSON(summary)
}

func (h *UserHandler) SetFCMToken(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.FCMTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "token is required")
	}

	if err := h.userService.SetFCMToken(c.Context(), p, req.Token); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, err)
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "Token saved"})
}

func (h *UserHandler) Following(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	users, err := h.relationshipService.Following(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toSummaries(users))
}

func (h *UserHandler) Followers(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	users, err := h.relationshipService.Followers(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toSummaries(users))
}

func (h *UserHandler) Blocked(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	users, err := h.relationshipService.Blocked(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toSummaries(users))
}

// Recipients lists everyone the caller can address a new message to.
func (h *UserHandler) Recipients(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	users, err := h.relationshipService.Recipients(c.Context(), p.UserID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(toSummaries(users))
}
