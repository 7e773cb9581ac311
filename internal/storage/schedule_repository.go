package storage

import (
	"context"

	"gorm.io/gorm"

	"schedule-go/internal/models"
)

// ScheduleRepository defines the interface for schedule data operations.
// Lessons of returned schedules are ordered by lesson id (creation order).
type ScheduleRepository interface {
	// Create inserts the schedule and join rows for its Lessons, which must
	// already be persisted.
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByIDForUser(ctx context.Context, id, userID uint) (*models.Schedule, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Schedule, error)
	ExistsForUser(ctx context.Context, userID uint) (bool, error)
	UpdateName(ctx context.Context, id uint, name string) error
	// ReplaceLessons swaps the join rows of a schedule for lessonIDs.
	ReplaceLessons(ctx context.Context, scheduleID uint, lessonIDs []uint) error
	Delete(ctx context.Context, id uint) error
}

type gormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GORM-based ScheduleRepository.
func NewGormScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &gormScheduleRepository{db: db}
}

func (r *gormScheduleRepository) withLessons(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.id")
	})
}

func (r *gormScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	// 只插入关联表，不 upsert lessons
	return translateError(r.db.WithContext(ctx).Omit("Lessons.*").Create(schedule).Error)
}

func (r *gormScheduleRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*models.Schedule, error) {
	var schedule models.Schedule
	err := r.withLessons(ctx).Where("id = ? AND user_id = ?", id, userID).First(&schedule).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &schedule, nil
}

func (r *gormScheduleRepository) ListByUser(ctx context.Context, userID uint) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	err := r.withLessons(ctx).Where("user_id = ?", userID).Order("id").Find(&schedules).Error
	return schedules, err
}

func (r *gormScheduleRepository) ExistsForUser(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Schedule{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *gormScheduleRepository) UpdateName(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&models.Schedule{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormScheduleRepository) ReplaceLessons(ctx context.Context, scheduleID uint, lessonIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("schedule_id = ?", scheduleID).Delete(&models.ScheduleLesson{}).Error; err != nil {
		return err
	}
	if len(lessonIDs) == 0 {
		return nil
	}
	rows := make([]models.ScheduleLesson, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		rows = append(rows, models.ScheduleLesson{ScheduleID: scheduleID, LessonID: id})
	}
	return translateError(db.Create(&rows).Error)
}

func (r *gormScheduleRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Schedule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
