package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/models"
	"scoreledger/internal/service"
	"scoreledger/internal/validation"
)

// PlayerHandler receives display identities from the account service
type PlayerHandler struct {
	service   *service.PlayerService
	validator *validation.Validator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(service *service.PlayerService, v *validation.Validator) *PlayerHandler {
	return &PlayerHandler{service: service, validator: v}
}

// Sync handles POST /api/v1/players/sync
func (h *PlayerHandler) Sync(c *fiber.Ctx) error {
	var req models.PlayerSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return writeError(c, err)
	}

	player, err := h.service.Sync(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(player)
}
