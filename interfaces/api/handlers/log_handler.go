package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"face-attendance/pkg/logger"
)

// LogHandler exposes the JSON log files for operational inspection.
// Routes using it sit behind the admin token middleware.
type LogHandler struct{}

func NewLogHandler() *LogHandler {
	return &LogHandler{}
}

// GetLogs returns filtered log entries
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	opts := logger.ReadLogsOptions{
		Lines:    c.QueryInt("lines", 100),
		Level:    logger.Level(c.Query("level")),
		Category: logger.Category(c.Query("category")),
		Search:   c.Query("search"),
	}

	entries, err := logger.ReadLogs(opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"entries": entries,
			"count":   len(entries),
			"filters": fiber.Map{
				"lines":    opts.Lines,
				"level":    opts.Level,
				"category": opts.Category,
				"search":   opts.Search,
			},
		},
	})
}

// GetLogFiles returns the list of log files
func (h *LogHandler) GetLogFiles(c *fiber.Ctx) error {
	files, err := logger.ListLogFiles()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"files":  files,
			"logDir": logger.GetLogDir(),
		},
	})
}

// GetLogStats returns counts by level and category plus disk usage
func (h *LogHandler) GetLogStats(c *fiber.Ctx) error {
	allLogs, _ := logger.ReadLogs(logger.ReadLogsOptions{Lines: 1000})

	levelCounts := map[string]int{
		"DEBUG": 0,
		"INFO":  0,
		"WARN":  0,
		"ERROR": 0,
	}
	categoryCounts := map[string]int{}

	for _, entry := range allLogs {
		levelCounts[string(entry.Level)]++
		categoryCounts[string(entry.Category)]++
	}

	var totalSize int64
	files, _ := logger.ListLogFiles()
	logDir := logger.GetLogDir()
	for _, f := range files {
		if info, err := os.Stat(logDir + "/" + f); err == nil {
			totalSize += info.Size()
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_entries":    len(allLogs),
			"by_level":         levelCounts,
			"by_category":      categoryCounts,
			"total_files":      len(files),
			"total_size_bytes": totalSize,
		},
	})
}
