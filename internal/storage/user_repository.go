package storage

import (
	"context"

	"gorm.io/gorm"

	"schedule-go/internal/models"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	// SetFavoriteLocations replaces the user's favorite locations.
	SetFavoriteLocations(ctx context.Context, userID uint, locationIDs []uint) error
	Count(ctx context.Context) (int64, error)
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create creates a new user record in the database.
func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Omit("FavoriteLocations").Create(user).Error)
}

// GetByID retrieves a user by their ID, favorite locations included.
func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("FavoriteLocations", func(db *gorm.DB) *gorm.DB { return db.Order("locations.id") }).
		First(&user, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their (normalized) email.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// Update saves the scalar columns of an existing user. Associations are
// managed through SetFavoriteLocations.
func (r *gormUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return translateError(r.db.WithContext(ctx).Omit("FavoriteLocations").Save(user).Error)
}

// Delete removes the user; the schema cascades to owned rows.
func (r *gormUserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) SetFavoriteLocations(ctx context.Context, userID uint, locationIDs []uint) error {
	locations := make([]models.Location, 0, len(locationIDs))
	for _, id := range locationIDs {
		locations = append(locations, models.Location{ID: id})
	}
	user := models.User{BaseModel: models.BaseModel{ID: userID}}
	// Omit 避免对 locations 表做 upsert，只写关联表
	err := r.db.WithContext(ctx).Model(&user).Omit("FavoriteLocations.*").
		Association("FavoriteLocations").Replace(locations)
	return translateError(err)
}

func (r *gormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
