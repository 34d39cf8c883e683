package di

import (
	"context"

	"gorm.io/gorm"

	"face-attendance/application/serviceimpl"
	"face-attendance/domain/matching"
	"face-attendance/domain/repositories"
	"face-attendance/domain/services"
	"face-attendance/infrastructure/faceapi"
	"face-attendance/infrastructure/postgres"
	"face-attendance/infrastructure/redis"
	"face-attendance/pkg/config"
	"face-attendance/pkg/logger"
	"face-attendance/pkg/scheduler"
)

// GalleryRefreshJobID names the scheduled gallery reload job.
const GalleryRefreshJobID = "gallery-refresh"

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB           *gorm.DB
	RedisClient  *redis.Client
	FaceClient   *faceapi.FaceClient
	JobScheduler scheduler.JobScheduler

	// Repositories
	IdentityRepository   repositories.IdentityRepository
	AttendanceRepository repositories.AttendanceRepository

	// Services
	Matcher           *matching.Matcher
	GalleryService    services.GalleryService
	AttendanceService services.AttendanceService
	IdentityService   services.IdentityService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", nil)
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrated", nil)

	// Redis is the history cache only; a failed connection degrades to
	// direct ledger reads rather than blocking startup.
	redisClient, err := redis.NewClient(redis.RedisConfig{
		Host:     c.Config.Redis.Host,
		Port:     c.Config.Redis.Port,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err != nil {
		logger.StartupWarn("redis_connection_failed", "Redis unavailable, history cache disabled", map[string]interface{}{"error": err.Error()})
	} else {
		c.RedisClient = redisClient
		logger.Startup("redis_connected", "Redis connected", nil)
	}

	if c.Config.FaceAPI.Enabled {
		c.FaceClient = faceapi.NewFaceClient(
			c.Config.FaceAPI.BaseURL,
			c.Config.Recognition.EmbeddingDim,
			c.Config.FaceAPI.TimeoutSeconds,
		)
		if !c.FaceClient.IsAvailable(context.Background()) {
			logger.StartupWarn("face_api_unreachable", "Embedding service did not answer health check", map[string]interface{}{"url": c.Config.FaceAPI.BaseURL})
		} else {
			logger.Startup("face_api_connected", "Embedding service connected", nil)
		}
	} else {
		logger.StartupWarn("face_api_disabled", "Face processing disabled, attendance marking will reject every image", nil)
	}

	return nil
}

func (c *Container) initRepositories() error {
	c.IdentityRepository = postgres.NewIdentityRepository(c.DB)
	c.AttendanceRepository = postgres.NewAttendanceRepository(c.DB)
	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	c.Matcher = matching.NewMatcher(c.Config.Recognition.AcceptThreshold)

	c.GalleryService = serviceimpl.NewGalleryService(c.IdentityRepository, c.Config.Recognition.EmbeddingDim)
	if err := c.GalleryService.Load(context.Background()); err != nil {
		return err
	}
	logger.Startup("gallery_loaded", "Embedding gallery loaded", map[string]interface{}{"size": c.GalleryService.Size()})

	var cache serviceimpl.HistoryCache
	var cacheIsNil func(error) bool
	if c.RedisClient != nil {
		cache = c.RedisClient
		cacheIsNil = redis.IsNil
	}

	var extractor serviceimpl.EmbeddingExtractor
	if c.FaceClient != nil {
		extractor = c.FaceClient
	} else {
		extractor = disabledExtractor{}
	}

	c.AttendanceService = serviceimpl.NewAttendanceService(
		extractor,
		c.Matcher,
		c.GalleryService,
		c.AttendanceRepository,
		cache,
		cacheIsNil,
		c.Config.Ledger.OperationTimeoutSeconds,
		c.Config.Ledger.LockRetries,
	)
	c.IdentityService = serviceimpl.NewIdentityService(c.IdentityRepository, extractor, c.GalleryService)

	logger.Startup("services_initialized", "Services initialized", nil)
	return nil
}

func (c *Container) initScheduler() error {
	c.JobScheduler = scheduler.NewJobScheduler()
	c.JobScheduler.Start()

	cronExpr := c.Config.Gallery.RefreshCron
	if err := scheduler.ValidateCronExpression(cronExpr); err != nil {
		logger.StartupWarn("gallery_refresh_invalid_cron", "Invalid gallery refresh cron, periodic refresh disabled", map[string]interface{}{"cron_expr": cronExpr, "error": err.Error()})
		return nil
	}

	err := c.JobScheduler.AddJob(GalleryRefreshJobID, cronExpr, func() {
		if err := c.GalleryService.Refresh(context.Background()); err != nil {
			logger.SchedulerError("gallery_refresh_job", "Scheduled gallery refresh failed", err, nil)
		}
	})
	if err != nil {
		logger.StartupWarn("gallery_refresh_schedule_failed", "Failed to schedule gallery refresh", map[string]interface{}{"error": err.Error()})
		return nil
	}

	logger.Startup("gallery_refresh_scheduled", "Gallery refresh scheduled", map[string]interface{}{"cron_expr": cronExpr})
	return nil
}

// GalleryRefreshJob exposes the scheduled refresh job for status reporting.
func (c *Container) GalleryRefreshJob() (*scheduler.JobInfo, bool) {
	if c.JobScheduler == nil {
		return nil, false
	}
	return c.JobScheduler.GetJob(GalleryRefreshJobID)
}

func (c *Container) Cleanup() error {
	logger.Startup("cleanup_started", "Starting cleanup...", nil)

	if c.JobScheduler != nil && c.JobScheduler.IsRunning() {
		c.JobScheduler.Stop()
		logger.Startup("scheduler_stopped", "Job scheduler stopped", nil)
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis connection", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Startup("redis_closed", "Redis connection closed", nil)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close_failed", "Failed to close database connection", map[string]interface{}{"error": err.Error()})
			} else {
				logger.Startup("db_closed", "Database connection closed", nil)
			}
		}
	}

	logger.Startup("cleanup_completed", "Cleanup completed", nil)
	return nil
}

// disabledExtractor stands in when face processing is turned off; every
// request resolves as no-face so the API stays up without the service.
type disabledExtractor struct{}

func (disabledExtractor) ExtractEmbedding(context.Context, []byte, string) ([]float32, error) {
	return nil, faceapi.ErrNoFaceFound
}
