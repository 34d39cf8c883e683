package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-attendance/interfaces/api/handlers"
	"face-attendance/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, cfg *config.Config) {
	// Health and root routes live outside the versioned group
	SetupHealthRoutes(app, h.Health, cfg)

	// API version group
	api := app.Group("/api/v1")

	SetupAttendanceRoutes(api, h)
	SetupIdentityRoutes(api, h)
	SetupGalleryRoutes(api, h)
	SetupLogRoutes(api, h, cfg)
}
