package services

import (
	"context"
	"time"

	"face-attendance/domain/matching"
)

// GalleryService owns the in-memory set of enrolled embeddings. Matching
// reads a stable snapshot without locking; Load and Refresh replace the
// snapshot atomically so no in-flight match observes a partial gallery.
type GalleryService interface {
	// Load populates the gallery from persistence. If the store is
	// unreachable it installs an empty gallery and logs a warning instead
	// of failing hard; matching then degrades to no-match until a
	// successful Refresh.
	Load(ctx context.Context) error

	// Refresh re-reads from persistence and swaps the snapshot in.
	Refresh(ctx context.Context) error

	// Snapshot returns the current gallery. The returned slice must not be
	// mutated; it is shared by concurrent matchers.
	Snapshot() []matching.GalleryEntry

	Size() int
	LastRefresh() time.Time

	// Available reports whether the last load/refresh reached persistence.
	Available() bool
}
