package storage

import (
	"context"

	"gorm.io/gorm"

	"schedule-go/internal/models"
)

// LocationRepository defines the interface for location data operations.
type LocationRepository interface {
	Create(ctx context.Context, location *models.Location) error
	List(ctx context.Context) ([]models.Location, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Location, error)
}

type gormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GORM-based LocationRepository.
func NewGormLocationRepository(db *gorm.DB) LocationRepository {
	return &gormLocationRepository{db: db}
}

func (r *gormLocationRepository) Create(ctx context.Context, location *models.Location) error {
	return translateError(r.db.WithContext(ctx).Create(location).Error)
}

func (r *gormLocationRepository) List(ctx context.Context) ([]models.Location, error) {
	locations := []models.Location{}
	err := r.db.WithContext(ctx).Order("id").Find(&locations).Error
	return locations, err
}

// GetByIDs returns the locations that exist among ids, ordered by id.
func (r *gormLocationRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Location, error) {
	locations := []models.Location{}
	if len(ids) == 0 {
		return locations, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&locations).Error
	return locations, err
}
