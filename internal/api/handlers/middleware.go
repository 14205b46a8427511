package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/models"
)

// HeaderUserID carries the caller identity established by the gateway
const HeaderUserID = "X-User-ID"

const playerIDKey = "player_id"

// RequireIdentity rejects requests without a caller identity and stores it for handlers
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderUserID))
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error:   "Unauthorized",
				Message: "missing " + HeaderUserID + " header",
			})
		}
		c.Locals(playerIDKey, id)
		return c.Next()
	}
}

// playerID returns the identity stored by RequireIdentity
func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals(playerIDKey).(string)
	return id
}

// clientIP returns the leftmost X-Forwarded-For address, falling back to the peer address
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	return c.IP()
}
