package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"face-attendance/domain/models"
	"face-attendance/domain/repositories"
)

type IdentityRepositoryImpl struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) repositories.IdentityRepository {
	return &IdentityRepositoryImpl{db: db}
}

func (r *IdentityRepositoryImpl) List(ctx context.Context) ([]models.Identity, error) {
	var identities []models.Identity
	err := r.db.WithContext(ctx).Order("reg_no").Find(&identities).Error
	return identities, err
}

func (r *IdentityRepositoryImpl) GetByRegNo(ctx context.Context, regNo string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("reg_no = ?", regNo).First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *IdentityRepositoryImpl) Upsert(ctx context.Context, identity *models.Identity) error {
	// Re-enrollment overwrites name and embedding for the reg_no.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reg_no"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "embedding", "updated_at"}),
	}).Create(identity).Error
}

func (r *IdentityRepositoryImpl) Delete(ctx context.Context, regNo string) error {
	result := r.db.WithContext(ctx).Where("reg_no = ?", regNo).Delete(&models.Identity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
