package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-attendance/interfaces/api/handlers"
	"face-attendance/interfaces/api/middleware"
	"face-attendance/pkg/config"
)

// SetupLogRoutes sets up log inspection routes behind the admin token
func SetupLogRoutes(router fiber.Router, h *handlers.Handlers, cfg *config.Config) {
	admin := router.Group("/admin", middleware.AdminOnly(cfg.Admin.Token))

	admin.Get("/logs", h.Log.GetLogs)
	admin.Get("/logs/files", h.Log.GetLogFiles)
	admin.Get("/logs/stats", h.Log.GetLogStats)
}
