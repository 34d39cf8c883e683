package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-attendance/interfaces/api/handlers"
)

// SetupIdentityRoutes sets up enrollment and profile management routes
func SetupIdentityRoutes(router fiber.Router, h *handlers.Handlers) {
	identities := router.Group("/identities")

	identities.Post("/", h.Identity.Enroll)
	identities.Get("/", h.Identity.List)
	identities.Delete("/:reg_no", h.Identity.Delete)
}
