package serviceimpl

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"face-attendance/domain/models"
	"face-attendance/domain/repositories"
	"face-attendance/domain/services"
	"face-attendance/infrastructure/faceapi"
	"face-attendance/pkg/embedding"
	"face-attendance/pkg/logger"
)

type IdentityServiceImpl struct {
	identityRepo repositories.IdentityRepository
	extractor    EmbeddingExtractor
	gallery      services.GalleryService
}

func NewIdentityService(
	identityRepo repositories.IdentityRepository,
	extractor EmbeddingExtractor,
	gallery services.GalleryService,
) services.IdentityService {
	return &IdentityServiceImpl{
		identityRepo: identityRepo,
		extractor:    extractor,
		gallery:      gallery,
	}
}

// Enroll extracts an embedding from the image and upserts the profile.
// Re-enrolling an existing registration number replaces its name and
// embedding.
func (s *IdentityServiceImpl) Enroll(ctx context.Context, regNo, name string, imageData []byte, mimeType string) (*models.Identity, error) {
	vec, err := s.extractor.ExtractEmbedding(ctx, imageData, mimeType)
	if err != nil {
		if errors.Is(err, faceapi.ErrNoFaceFound) {
			return nil, services.ErrNoFaceInImage
		}
		return nil, fmt.Errorf("failed to extract enrollment embedding: %w", err)
	}

	identity := &models.Identity{
		RegNo:     regNo,
		Name:      name,
		Embedding: embedding.Encode(vec),
	}

	if err := s.identityRepo.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	logger.Face("enroll", "Profile enrolled", map[string]interface{}{
		"reg_no": regNo,
		"name":   name,
	})

	s.refreshGallery(ctx)
	return identity, nil
}

func (s *IdentityServiceImpl) Delete(ctx context.Context, regNo string) error {
	err := s.identityRepo.Delete(ctx, regNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrIdentityNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	logger.Face("delete", "Profile deleted", map[string]interface{}{"reg_no": regNo})

	s.refreshGallery(ctx)
	return nil
}

func (s *IdentityServiceImpl) List(ctx context.Context) ([]models.Identity, error) {
	return s.identityRepo.List(ctx)
}

// refreshGallery propagates profile changes to the matcher. Failures are
// logged, not surfaced: the scheduled refresh will catch up.
func (s *IdentityServiceImpl) refreshGallery(ctx context.Context) {
	if err := s.gallery.Refresh(ctx); err != nil {
		logger.GalleryWarn("refresh_after_change", "Gallery refresh failed after profile change", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
