package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"face-attendance/domain/services"
	"face-attendance/infrastructure/faceapi"
	"face-attendance/infrastructure/redis"
)

// HealthHandler reports component-level health for operations
type HealthHandler struct {
	db             *gorm.DB
	redisClient    *redis.Client
	faceClient     *faceapi.FaceClient
	galleryService services.GalleryService
}

func NewHealthHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	faceClient *faceapi.FaceClient,
	galleryService services.GalleryService,
) *HealthHandler {
	return &HealthHandler{
		db:             db,
		redisClient:    redisClient,
		faceClient:     faceClient,
		galleryService: galleryService,
	}
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DetailedHealthResponse represents detailed health check response
type DetailedHealthResponse struct {
	Status     string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// DetailedHealth checks the ledger database, the cache, the embedding
// service and the gallery. The database is the only critical component;
// everything else degrades.
func (h *HealthHandler) DetailedHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	response := DetailedHealthResponse{
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}

	allHealthy := true
	hasCriticalFailure := false

	dbHealth := h.checkDatabase(ctx)
	response.Components["database"] = dbHealth
	if dbHealth.Status != "ok" {
		hasCriticalFailure = true
	}

	redisHealth := h.checkRedis(ctx)
	response.Components["redis"] = redisHealth
	if redisHealth.Status == "error" {
		allHealthy = false
	}

	faceHealth := h.checkFaceAPI(ctx)
	response.Components["face_api"] = faceHealth
	if faceHealth.Status == "error" {
		allHealthy = false
	}

	galleryHealth := h.checkGallery()
	response.Components["gallery"] = galleryHealth
	if galleryHealth.Status != "ok" {
		allHealthy = false
	}

	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if !allHealthy {
		response.Status = "degraded"
	} else {
		response.Status = "healthy"
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.db == nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database not configured",
		}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Failed to get database connection: " + err.Error(),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redisClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Redis not configured",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Redis ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkFaceAPI(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.faceClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Embedding service not configured",
		}
	}

	health, err := h.faceClient.Health(ctx)
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Embedding service health check failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Model: " + health.Model + ", Version: " + health.Version,
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkGallery() ComponentHealth {
	if h.galleryService == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Gallery not configured",
		}
	}

	if !h.galleryService.Available() {
		return ComponentHealth{
			Status:  "error",
			Message: "Gallery could not be loaded from persistence",
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Loaded",
	}
}
