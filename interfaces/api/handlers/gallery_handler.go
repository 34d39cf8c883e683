package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"face-attendance/domain/services"
	"face-attendance/pkg/scheduler"
	"face-attendance/pkg/utils"
)

type GalleryHandler struct {
	galleryService services.GalleryService
	jobScheduler   scheduler.JobScheduler
	refreshJobID   string
}

func NewGalleryHandler(galleryService services.GalleryService, jobScheduler scheduler.JobScheduler, refreshJobID string) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		jobScheduler:   jobScheduler,
		refreshJobID:   refreshJobID,
	}
}

// Refresh reloads the in-memory gallery from persistence
func (h *GalleryHandler) Refresh(c *fiber.Ctx) error {
	if err := h.galleryService.Refresh(c.Context()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Gallery refresh failed", err)
	}

	return utils.SuccessResponse(c, "Gallery refreshed", fiber.Map{
		"size": h.galleryService.Size(),
	})
}

// Stats reports gallery size, freshness and the next scheduled refresh
func (h *GalleryHandler) Stats(c *fiber.Ctx) error {
	data := fiber.Map{
		"size":         h.galleryService.Size(),
		"available":    h.galleryService.Available(),
		"last_refresh": h.galleryService.LastRefresh().Format(time.RFC3339),
	}

	if h.jobScheduler != nil {
		if job, ok := h.jobScheduler.GetJob(h.refreshJobID); ok {
			data["refresh_cron"] = job.CronExpr
			if job.NextRun != nil {
				data["next_refresh"] = job.NextRun.Format(time.RFC3339)
			}
		}
	}

	return utils.SuccessResponse(c, "Gallery stats retrieved", data)
}
