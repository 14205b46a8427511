package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/models"
	"scoreledger/internal/service"
	"scoreledger/internal/validation"
)

// WalletHandler handles the coin wallet and points account
type WalletHandler struct {
	service   *service.WalletService
	validator *validation.Validator
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(service *service.WalletService, v *validation.Validator) *WalletHandler {
	return &WalletHandler{service: service, validator: v}
}

// GetWallet handles GET /api/v1/wallet
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	wallet, err := h.service.GetWallet(c.UserContext(), playerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(wallet)
}

// Adjust handles POST /api/v1/wallet/adjust
// @Summary Increment or decrement coins
// @Param request body models.WalletAdjustRequest true "Adjustment"
// @Success 200 {object} models.WalletResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/wallet/adjust [post]
func (h *WalletHandler) Adjust(c *fiber.Ctx) error {
	var req models.WalletAdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return writeError(c, err)
	}

	wallet, err := h.service.Adjust(c.UserContext(), playerID(c), req.Amount, req.Direction)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(wallet)
}

// Redeem handles POST /api/v1/wallet/redeem
// @Summary Convert points into coins
// @Param request body models.RedeemRequest true "Coins to receive"
// @Success 200 {object} models.RedeemResult
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/wallet/redeem [post]
func (h *WalletHandler) Redeem(c *fiber.Ctx) error {
	var req models.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return writeError(c, err)
	}

	result, err := h.service.Redeem(c.UserContext(), playerID(c), req.Coins)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// GetPoints handles GET /api/v1/points
func (h *WalletHandler) GetPoints(c *fiber.Ctx) error {
	points, err := h.service.GetPoints(c.UserContext(), playerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(points)
}
