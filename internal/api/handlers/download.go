package handlers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"scoreledger/internal/models"
	"scoreledger/internal/service"
	"scoreledger/internal/worker"
)

// ClickQueue accepts click tasks for asynchronous persistence
type ClickQueue interface {
	Submit(task worker.ClickTask) error
}

// DownloadHandler serves the public download landing page endpoints
type DownloadHandler struct {
	referrals *service.ReferralService
	clicks    ClickQueue
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(referrals *service.ReferralService, clicks ClickQueue) *DownloadHandler {
	return &DownloadHandler{referrals: referrals, clicks: clicks}
}

// Lookup handles GET /download?refcode=
func (h *DownloadHandler) Lookup(c *fiber.Ctx) error {
	resp, err := h.referrals.Lookup(c.UserContext(), c.Query("refcode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Click handles POST /download/click. The click is queued; tracked reports
// whether the queue accepted it.
func (h *DownloadHandler) Click(c *fiber.Ctx) error {
	var req models.ReferralClickRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, err)
		}
	}
	if req.RefCode == "" {
		req.RefCode = c.Query("refcode")
	}

	code := service.NormalizeCode(req.RefCode)
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "missing refcode"})
	}
	ip := clientIP(c)
	if ip == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "could not determine ip"})
	}

	tracked := true
	if err := h.clicks.Submit(worker.ClickTask{Code: code, IP: ip}); err != nil {
		log.WithError(err).WithField("code", code).Warn("Referral click not queued")
		tracked = false
	}
	return c.JSON(fiber.Map{"success": true, "tracked": tracked})
}
