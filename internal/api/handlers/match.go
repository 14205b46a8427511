package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/models"
	"scoreledger/internal/service"
)

// MatchHandler handles HTTP requests for match records
type MatchHandler struct {
	service *service.MatchService
	paging  Paging
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(service *service.MatchService, paging Paging) *MatchHandler {
	return &MatchHandler{service: service, paging: paging}
}

// AddMatch handles POST /api/v1/games
// @Summary Record a finished match
// @Description Stores the match, computes its points and credits them to the caller
// @Accept json
// @Produce json
// @Param request body models.AddMatchRequest true "Match record"
// @Success 201 {object} models.AddMatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/games [post]
func (h *MatchHandler) AddMatch(c *fiber.Ctx) error {
	var req models.AddMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	match, err := h.service.AddMatch(c.UserContext(), playerID(c), &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.AddMatchResponse{
		Detail: "Match recorded.",
		Match:  match,
	})
}

// History handles GET /api/v1/games
// @Summary List the caller's matches
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.MatchHistoryResponse
// @Router /api/v1/games [get]
func (h *MatchHandler) History(c *fiber.Ctx) error {
	page, size, err := h.paging.parsePage(c)
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.service.History(c.UserContext(), playerID(c), page, size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}
