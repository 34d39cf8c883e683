package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"face-attendance/domain/services"
	"face-attendance/pkg/logger"
	"face-attendance/pkg/utils"
)

// ErrorHandler maps service-layer faults to HTTP statuses. Everything the
// handlers did not translate themselves lands here.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An error occurred"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, services.ErrIdentityNotFound):
			code = fiber.StatusNotFound
			message = "Identity not found"
		case errors.Is(err, services.ErrConcurrencyTimeout):
			code = fiber.StatusServiceUnavailable
			message = "Attendance service is busy, try again"
		case errors.Is(err, services.ErrLedgerUnavailable):
			code = fiber.StatusServiceUnavailable
			message = "Attendance ledger is unavailable"
		case errors.Is(err, services.ErrExtractionFailed):
			code = fiber.StatusBadGateway
			message = "Face processing failed"
		}

		logger.Error(logger.CategoryAPI, "error_handler", "Request error occurred", err, map[string]interface{}{"status_code": code, "path": c.Path(), "method": c.Method()})

		return utils.ErrorResponse(c, code, message, err)
	}
}
