package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/models"
	"scoreledger/internal/service"
	"scoreledger/internal/validation"
)

// referralSubmitted is the only answer a well-formed submission ever gets
const referralSubmitted = "Referral code submitted."

// ReferralHandler handles referral code submission and lookup of the caller's own code
type ReferralHandler struct {
	service   *service.ReferralService
	validator *validation.Validator
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(service *service.ReferralService, v *validation.Validator) *ReferralHandler {
	return &ReferralHandler{service: service, validator: v}
}

// Submit handles POST /api/v1/referral
// @Summary Submit a referral code
// @Description The response does not reveal whether the code was credited
// @Param request body models.ReferralSubmitRequest true "Referral code"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/referral [post]
func (h *ReferralHandler) Submit(c *fiber.Ctx) error {
	var req models.ReferralSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return writeError(c, err)
	}

	if _, err := h.service.Submit(c.UserContext(), playerID(c), req.Code, clientIP(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"detail": referralSubmitted})
}

// MyCode handles GET /api/v1/referral/code
func (h *ReferralHandler) MyCode(c *fiber.Ctx) error {
	resp, err := h.service.MyCode(c.UserContext(), playerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}
