package routes

import (
	"github.com/gofiber/fiber/v2"

	"face-attendance/interfaces/api/handlers"
)

// SetupAttendanceRoutes sets up attendance marking and history routes
func SetupAttendanceRoutes(router fiber.Router, h *handlers.Handlers) {
	attendance := router.Group("/attendance")

	attendance.Post("/mark-in", h.Attendance.MarkIn)
	attendance.Post("/mark-out", h.Attendance.MarkOut)
	attendance.Post("/mark-online", h.Attendance.MarkOnline)
	attendance.Get("/history/:reg_no", h.Attendance.History)
}
