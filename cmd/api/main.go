package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"face-attendance/interfaces/api/handlers"
	"face-attendance/interfaces/api/middleware"
	"face-attendance/interfaces/api/routes"
	"face-attendance/pkg/di"
	"face-attendance/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init("logs", true); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	logger.Startup("logger_init", "Logger initialized - logs will be written to ./logs/", nil)

	// Initialize DI container
	container := di.NewContainer()
	if err := container.Initialize(); err != nil {
		logger.StartupError("container_init_failed", "Failed to initialize container", err, nil)
		os.Exit(1)
	}

	setupGracefulShutdown(container)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		AppName:      container.Config.App.Name,
		BodyLimit:    12 * 1024 * 1024,
	})

	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CorsMiddleware())

	h := handlers.NewHandlers(
		&handlers.Services{
			AttendanceService: container.AttendanceService,
			IdentityService:   container.IdentityService,
			GalleryService:    container.GalleryService,
		},
		&handlers.Infrastructure{
			DB:           container.DB,
			RedisClient:  container.RedisClient,
			FaceClient:   container.FaceClient,
			JobScheduler: container.JobScheduler,
			RefreshJobID: di.GalleryRefreshJobID,
		},
	)

	routes.SetupRoutes(app, h, container.Config)

	port := container.Config.App.Port
	logger.Startup("server_starting", "Server starting", map[string]interface{}{
		"port":        port,
		"environment": container.Config.App.Env,
		"health":      fmt.Sprintf("http://localhost:%s/health", port),
		"api":         fmt.Sprintf("http://localhost:%s/api/v1", port),
		"logs_api":    fmt.Sprintf("http://localhost:%s/api/v1/admin/logs", port),
	})

	if err := app.Listen(":" + port); err != nil {
		logger.StartupError("server_failed", "Server failed to start", err, nil)
		os.Exit(1)
	}
}

func setupGracefulShutdown(container *di.Container) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Startup("shutdown_started", "Gracefully shutting down", nil)

		if err := container.Cleanup(); err != nil {
			logger.StartupError("cleanup_failed", "Error during cleanup", err, nil)
		}

		logger.Startup("shutdown_complete", "Shutdown complete", nil)
		os.Exit(0)
	}()
}
