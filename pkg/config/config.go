package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Admin       AdminConfig
	FaceAPI     FaceAPIConfig
	Recognition RecognitionConfig
	Gallery     GalleryConfig
	Ledger      LedgerConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AdminConfig struct {
	Token string // Admin token for the log inspection API
}

type FaceAPIConfig struct {
	BaseURL        string // Base URL of the embedding extraction service
	Enabled        bool   // Enable/disable face processing
	TimeoutSeconds int    // HTTP timeout for extraction calls
}

// RecognitionConfig holds the identity matching parameters.
// AcceptThreshold is the single accept threshold used by every decision
// path; the matcher accepts only scores strictly greater than it.
type RecognitionConfig struct {
	AcceptThreshold float64
	EmbeddingDim    int
}

type GalleryConfig struct {
	RefreshCron string // Cron expression for the periodic gallery reload
}

type LedgerConfig struct {
	OperationTimeoutSeconds int // Bound on each read-then-append critical section
	LockRetries             int // Attempts before a lock conflict surfaces as transient error
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	acceptThreshold, _ := strconv.ParseFloat(getEnv("RECOGNITION_ACCEPT_THRESHOLD", "0.7"), 64)
	embeddingDim, _ := strconv.Atoi(getEnv("RECOGNITION_EMBEDDING_DIM", "512"))
	faceTimeout, _ := strconv.Atoi(getEnv("FACE_API_TIMEOUT_SECONDS", "30"))
	ledgerTimeout, _ := strconv.Atoi(getEnv("LEDGER_TIMEOUT_SECONDS", "5"))
	lockRetries, _ := strconv.Atoi(getEnv("LEDGER_LOCK_RETRIES", "3"))

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Face Attendance"),
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "attendance_db"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		FaceAPI: FaceAPIConfig{
			BaseURL:        getEnv("FACE_API_URL", "http://localhost:5000"),
			Enabled:        getEnv("FACE_API_ENABLED", "true") == "true",
			TimeoutSeconds: faceTimeout,
		},
		Recognition: RecognitionConfig{
			AcceptThreshold: acceptThreshold,
			EmbeddingDim:    embeddingDim,
		},
		Gallery: GalleryConfig{
			RefreshCron: getEnv("GALLERY_REFRESH_CRON", "*/5 * * * *"),
		},
		Ledger: LedgerConfig{
			OperationTimeoutSeconds: ledgerTimeout,
			LockRetries:             lockRetries,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
