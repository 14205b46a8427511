package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
	"scoreledger/internal/service"
)

// LeaderboardHandler handles HTTP requests for the leaderboard
type LeaderboardHandler struct {
	service *service.LeaderboardService
	paging  Paging
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *service.LeaderboardService, paging Paging) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, paging: paging}
}

// GetLeaderboard handles GET /api/v1/leaderboard
// @Summary Get leaderboard
// @Description Ranks players by points earned from completed matches within a period
// @Accept json
// @Produce json
// @Param period query string false "today, this_week, this_month or all_time" default(all_time)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.LeaderboardResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	period := models.PeriodAllTime
	if raw := c.Query("period"); raw != "" {
		p, ok := models.ParsePeriod(raw)
		if !ok {
			return writeError(c, common.FieldError("period", "must be one of: today, this_week, this_month, all_time"))
		}
		period = p
	}

	page, size, err := h.paging.parsePage(c)
	if err != nil {
		return writeError(c, err)
	}

	leaderboard, err := h.service.GetLeaderboard(c.UserContext(), period, page, size)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(leaderboard)
}

// HealthCheck handles GET /api/v1/health
// @Summary Health check
// @Description Checks the health of the service and its dependencies
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *LeaderboardHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.service.HealthCheck(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}
