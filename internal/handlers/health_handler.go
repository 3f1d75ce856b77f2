package handlers

import (
	"time"

	"github.com/arigatojournal/arigato-backend/internal/database"
	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	sessions *session.Store
}

func NewHealthHandler(sessions *session.Store) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	redisStatus := "ok"
	if h.sessions != nil {
		if err := h.sessions.Ping(c.Context()); err != nil {
			redisStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Redis:     redisStatus,
	})
}
