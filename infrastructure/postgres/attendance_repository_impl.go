package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"face-attendance/domain/models"
	"face-attendance/domain/repositories"
	"face-attendance/pkg/logger"
)

// lockTimeout bounds how long a request waits to enter another request's
// critical section for the same identity before it is retried.
const lockTimeout = "3s"

type AttendanceRepositoryImpl struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) repositories.AttendanceRepository {
	return &AttendanceRepositoryImpl{db: db}
}

func (r *AttendanceRepositoryImpl) LatestOfflineType(ctx context.Context, regNo, date string) (models.EventType, bool, error) {
	var event models.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("reg_no = ? AND date = ? AND mode = ?", regNo, date, models.ModeOffline).
		Order("id DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return event.Type, true, nil
}

func (r *AttendanceRepositoryImpl) HasOnlineMark(ctx context.Context, regNo, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AttendanceEvent{}).
		Where("reg_no = ? AND date = ? AND mode = ?", regNo, date, models.ModeOnline).
		Count(&count).Error
	return count > 0, err
}

func (r *AttendanceRepositoryImpl) Append(ctx context.Context, event *models.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *AttendanceRepositoryImpl) History(ctx context.Context, regNo string) ([]models.AttendanceEvent, error) {
	var events []models.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("reg_no = ?", regNo).
		Order("date DESC").
		Order("time DESC").
		Find(&events).Error
	return events, err
}

// WithIdentityLock serializes the read-then-append critical section per
// registration number using a transaction-scoped advisory lock. The lock
// key is derived from reg_no alone, so requests for different identities
// never contend. An advisory lock rather than a row lock on faces: events
// for a since-deleted profile still need serializing, and the faces row
// may be gone.
func (r *AttendanceRepositoryImpl) WithIdentityLock(ctx context.Context, regNo string, fn func(tx repositories.AttendanceRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockTimeout)).Error; err != nil {
			return err
		}
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", regNo).Error; err != nil {
			if isLockTimeout(err) {
				logger.DB("lock_conflict", "Identity lock wait timed out", map[string]interface{}{"reg_no": regNo})
				return repositories.ErrLockConflict
			}
			return err
		}
		return fn(&AttendanceRepositoryImpl{db: tx})
	})
	return err
}

func isLockTimeout(err error) bool {
	// Postgres reports lock_timeout expiry as SQLSTATE 55P03.
	return err != nil && (strings.Contains(err.Error(), "55P03") ||
		strings.Contains(err.Error(), "lock timeout"))
}
