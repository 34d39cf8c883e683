package repositories

import (
	"context"
	"errors"

	"face-attendance/domain/models"
)

// ErrLockConflict reports that the per-identity critical section could not
// be entered within the lock timeout. Callers retry a bounded number of
// times before surfacing a transient error.
var ErrLockConflict = errors.New("attendance ledger lock conflict")

// AttendanceRepository is the sole gateway to the durable attendance ledger.
//
// The pair "read latest state, conditionally Append" for one identity must
// run inside WithIdentityLock: the implementation serializes the critical
// section per registration number, so two concurrent requests for the same
// identity can never both observe the same stale state. Requests for
// different identities proceed in parallel.
type AttendanceRepository interface {
	// LatestOfflineType returns the type of the most recent offline event
	// for the identity on the given date (highest sequence id), or false
	// when no offline event exists that day.
	LatestOfflineType(ctx context.Context, regNo, date string) (models.EventType, bool, error)

	// HasOnlineMark reports whether a present/online event already exists
	// for the identity on the given date.
	HasOnlineMark(ctx context.Context, regNo, date string) (bool, error)

	// Append durably adds one event and fills in its sequence id.
	Append(ctx context.Context, event *models.AttendanceEvent) error

	// History returns all events for the identity, newest date first and
	// newest time first within a date.
	History(ctx context.Context, regNo string) ([]models.AttendanceEvent, error)

	// WithIdentityLock runs fn inside a transaction holding an exclusive
	// per-identity lock. fn receives a repository bound to that
	// transaction; returning an error rolls everything back.
	WithIdentityLock(ctx context.Context, regNo string, fn func(tx AttendanceRepository) error) error
}
