package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"face-attendance/domain/models"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewDatabase(config DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		config.Host, config.User, config.Password, config.DBName, config.Port, config.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// The faces table is shared with the external enrollment tooling;
	// AutoMigrate only ever adds, so existing rows survive.
	if err := db.AutoMigrate(
		&models.Identity{},
		&models.AttendanceEvent{},
	); err != nil {
		return fmt.Errorf("failed to run auto migrations: %v", err)
	}

	if err := runLedgerMigrations(db); err != nil {
		return fmt.Errorf("failed to run ledger migrations: %v", err)
	}

	return nil
}

// runLedgerMigrations adds what AutoMigrate cannot express: the last-state
// lookup index ordered by sequence id descending.
func runLedgerMigrations(db *gorm.DB) error {
	migrations := []string{
		`CREATE INDEX IF NOT EXISTS idx_attendance_last_state
			ON attendance(reg_no, date, mode, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_history
			ON attendance(reg_no, date DESC, time DESC)`,
	}

	for _, sql := range migrations {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("migration failed: %v", err)
		}
	}

	return nil
}
