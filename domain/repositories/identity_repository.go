package repositories

import (
	"context"

	"face-attendance/domain/models"
)

// IdentityRepository is the persistence surface for enrolled profiles.
type IdentityRepository interface {
	// List returns every enrolled profile, ordered by registration number
	// so gallery iteration order is deterministic.
	List(ctx context.Context) ([]models.Identity, error)

	GetByRegNo(ctx context.Context, regNo string) (*models.Identity, error)

	// Upsert inserts or overwrites the profile for its registration number
	// (re-enrollment replaces name and embedding).
	Upsert(ctx context.Context, identity *models.Identity) error

	Delete(ctx context.Context, regNo string) error
}
