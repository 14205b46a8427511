package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// writeError maps service errors to HTTP responses. Internal failures are
// logged with their cause and reported with a generic message.
func writeError(c *fiber.Ctx, err error) error {
	if verr, ok := common.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:  "Validation failed",
			Fields: verr.Fields,
		})
	}

	switch {
	case errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrInsufficientBalance),
		errors.Is(err, common.ErrInsufficientPoints):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Request rejected",
			Message: err.Error(),
		})

	case errors.Is(err, common.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "Not found",
			Message: err.Error(),
		})

	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrMatchImmutable):
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("Request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error:   "Internal server error",
		Message: "Something went wrong, please try again later",
	})
}

// invalidBody reports a body that could not be decoded
func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   "Invalid request body",
		Message: err.Error(),
	})
}
