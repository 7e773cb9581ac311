package storage

import (
	"context"

	"gorm.io/gorm"

	"schedule-go/internal/models"
)

// LessonRepository defines the interface for lesson data operations.
type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByIDForUser(ctx context.Context, id, userID uint) (*models.Lesson, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Lesson, error)
	// DeleteByIDs removes the given lessons created by userID.
	DeleteByIDs(ctx context.Context, userID uint, ids []uint) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type gormLessonRepository struct {
	db *gorm.DB
}

// NewGormLessonRepository creates a new GORM-based LessonRepository.
func NewGormLessonRepository(db *gorm.DB) LessonRepository {
	return &gormLessonRepository{db: db}
}

func (r *gormLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return translateError(r.db.WithContext(ctx).Create(lesson).Error)
}

func (r *gormLessonRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&lesson).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &lesson, nil
}

func (r *gormLessonRepository) ListByUser(ctx context.Context, userID uint) ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&lessons).Error
	return lessons, err
}

func (r *gormLessonRepository) DeleteByIDs(ctx context.Context, userID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.Lesson{}).Error
}

func (r *gormLessonRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
