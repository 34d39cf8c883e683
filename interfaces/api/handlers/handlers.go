package handlers

import (
	"gorm.io/gorm"

	"face-attendance/domain/services"
	"face-attendance/infrastructure/faceapi"
	"face-attendance/infrastructure/redis"
	"face-attendance/pkg/scheduler"
)

// Services contains all the services needed for handlers
type Services struct {
	AttendanceService services.AttendanceService
	IdentityService   services.IdentityService
	GalleryService    services.GalleryService
}

// Infrastructure carries the infrastructure handles some handlers probe
// directly (health checks, scheduler status).
type Infrastructure struct {
	DB           *gorm.DB
	RedisClient  *redis.Client
	FaceClient   *faceapi.FaceClient
	JobScheduler scheduler.JobScheduler
	RefreshJobID string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Attendance *AttendanceHandler
	Identity   *IdentityHandler
	Gallery    *GalleryHandler
	Health     *HealthHandler
	Log        *LogHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	return &Handlers{
		Attendance: NewAttendanceHandler(services.AttendanceService),
		Identity:   NewIdentityHandler(services.IdentityService),
		Gallery:    NewGalleryHandler(services.GalleryService, infra.JobScheduler, infra.RefreshJobID),
		Health:     NewHealthHandler(infra.DB, infra.RedisClient, infra.FaceClient, services.GalleryService),
		Log:        NewLogHandler(),
	}
}
