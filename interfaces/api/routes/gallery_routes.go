package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-attendance/interfaces/api/handlers"
)

// SetupGalleryRoutes sets up gallery maintenance routes
func SetupGalleryRoutes(router fiber.Router, h *handlers.Handlers) {
	gallery := router.Group("/gallery")

	gallery.Post("/refresh", h.Gallery.Refresh)
	gallery.Get("/stats", h.Gallery.Stats)
}
