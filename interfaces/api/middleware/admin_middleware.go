package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"face-attendance/pkg/utils"
)

// AdminOnly guards operational endpoints with the configured admin token.
// An empty configured token disables the endpoints entirely.
func AdminOnly(adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminToken == "" {
			return utils.UnauthorizedResponse(c, "Admin access is not configured")
		}

		token := c.Get("X-Admin-Token")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return utils.UnauthorizedResponse(c, "Missing admin token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			return utils.UnauthorizedResponse(c, "Invalid admin token")
		}

		return c.Next()
	}
}
