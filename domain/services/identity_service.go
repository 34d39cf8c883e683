package services

import (
	"context"
	"errors"

	"face-attendance/domain/models"
)

var ErrNoFaceInImage = errors.New("no face detected in the enrollment image")

// IdentityService manages enrolled profiles. Enrollment extracts an
// embedding from the supplied image and upserts the profile; both enroll
// and delete refresh the gallery so the matcher sees the change.
type IdentityService interface {
	Enroll(ctx context.Context, regNo, name string, imageData []byte, mimeType string) (*models.Identity, error)
	Delete(ctx context.Context, regNo string) error
	List(ctx context.Context) ([]models.Identity, error)
}
