package handlers

import (
	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func notFound(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: err.Error(),
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func toSummaries(users []models.User) []dto.UserSummary {
	out := make([]dto.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserSummary{
			UserID: u.UserID,
			Name:   u.Name,
			Avatar: u.Avatar,
		})
	}
	return out
}

func toMessageResponse(m models.Message) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:        m.ID.String(),
		FromID:    m.FromID,
		FromName:  m.FromName,
		ToID:      m.ToID,
		ToName:    m.ToName,
		Body:      m.Body,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
	if ref := m.Reply(); ref != nil {
		resp.ReplyTo = &dto.ReplySnippet{ID: ref.ID, Name: ref.Name, Text: ref.Text}
	}
	if m.RootID != nil {
		root := m.RootID.String()
		resp.RootID = &root
	}
	return resp
}

func toMessageResponses(msgs []models.Message) []dto.MessageResponse {
	out := make([]dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}
