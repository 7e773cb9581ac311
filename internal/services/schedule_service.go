package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"schedule-go/internal/models"
	"schedule-go/internal/storage"
	"schedule-go/internal/validation"
)

// LessonInput is one lesson of a schedule payload. Times are "HH:MM",
// day is MON..SUN in any case.
type LessonInput struct {
	Name      string `json:"name" validate:"required,notblank,max=255"`
	Room      string `json:"room" validate:"required,notblank,max=255"`
	StartTime string `json:"start_time" validate:"required,timeofday"`
	EndTime   string `json:"end_time" validate:"required,timeofday"`
	Day       string `json:"day" validate:"required,weekday"`
}

// ScheduleInput is the body of create and full update requests.
type ScheduleInput struct {
	Name    string        `json:"name" validate:"required,notblank,max=255"`
	Lessons []LessonInput `json:"lessons" validate:"required,dive"`
}

// ScheduleUpdate is the body of a partial update. A nil Lessons keeps the
// current lessons; a non-nil one replaces them.
type ScheduleUpdate struct {
	Name    *string       `json:"name" validate:"omitnil,notblank,max=255"`
	Lessons []LessonInput `json:"lessons" validate:"omitempty,dive"`
}

func init() {
	validation.Validate.RegisterStructValidation(lessonInputStructValidation, LessonInput{})
}

// lessonInputStructValidation checks start_time < end_time once both parse.
func lessonInputStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(LessonInput)
	if !ok {
		return
	}
	start, err := models.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return
	}
	end, err := models.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return
	}
	if !start.Before(end) {
		sl.ReportError(in.EndTime, "end_time", "EndTime", validation.EndAfterStartTag, "")
	}
}

// lesson converts a validated input.
func (in LessonInput) lesson(userID uint) models.Lesson {
	start, _ := models.ParseTimeOfDay(in.StartTime)
	end, _ := models.ParseTimeOfDay(in.EndTime)
	day, _ := models.ParseWeekday(in.Day)
	return models.Lesson{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Room:      strings.TrimSpace(in.Room),
		StartTime: start,
		EndTime:   end,
		Day:       day,
	}
}

// ScheduleService manages the caller's schedule. Every operation is scoped to
// the caller; schedules of other users behave as if they did not exist.
type ScheduleService interface {
	List(ctx context.Context, caller *models.User) ([]models.Schedule, error)
	Get(ctx context.Context, caller *models.User, id uint) (*models.Schedule, error)
	// Create stores the schedule and its lessons atomically.
	Create(ctx context.Context, caller *models.User, in ScheduleInput) (*models.Schedule, error)
	Update(ctx context.Context, caller *models.User, id uint, in ScheduleUpdate) (*models.Schedule, error)
	Replace(ctx context.Context, caller *models.User, id uint, in ScheduleInput) (*models.Schedule, error)
	// Delete removes the schedule and the lessons attached to it.
	Delete(ctx context.Context, caller *models.User, id uint) error
	ListLessons(ctx context.Context, caller *models.User) ([]models.Lesson, error)
	GetLesson(ctx context.Context, caller *models.User, id uint) (*models.Lesson, error)
}

type scheduleService struct {
	store storage.Store
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(store storage.Store) ScheduleService {
	return &scheduleService{store: store}
}

func (s *scheduleService) List(ctx context.Context, caller *models.User) ([]models.Schedule, error) {
	schedules, err := s.store.Schedules().ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("获取课表列表失败: %w", err)
	}
	return schedules, nil
}

func getSchedule(ctx context.Context, store storage.Store, caller *models.User, id uint) (*models.Schedule, error) {
	schedule, err := store.Schedules().GetByIDForUser(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) Get(ctx context.Context, caller *models.User, id uint) (*models.Schedule, error) {
	return getSchedule(ctx, s.store, caller, id)
}

// createLessons inserts lessons in payload order so ids follow it.
func createLessons(ctx context.Context, tx storage.Store, callerID uint, inputs []LessonInput) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, 0, len(inputs))
	for _, in := range inputs {
		lesson := in.lesson(callerID)
		if err := tx.Lessons().Create(ctx, &lesson); err != nil {
			return nil, fmt.Errorf("创建课程失败: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

func (s *scheduleService) Create(ctx context.Context, caller *models.User, in ScheduleInput) (*models.Schedule, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var created *models.Schedule
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		exists, err := tx.Schedules().ExistsForUser(ctx, caller.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrScheduleExists
		}

		lessons, err := createLessons(ctx, tx, caller.ID, in.Lessons)
		if err != nil {
			return err
		}

		schedule := &models.Schedule{
			UserID:  caller.ID,
			Name:    strings.TrimSpace(in.Name),
			Lessons: lessons,
		}
		if err := tx.Schedules().Create(ctx, schedule); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ErrScheduleExists
			}
			return fmt.Errorf("创建课表失败: %w", err)
		}

		created, err = getSchedule(ctx, tx, caller, schedule.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *scheduleService) Update(ctx context.Context, caller *models.User, id uint, in ScheduleUpdate) (*models.Schedule, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, caller, id, in)
}

func (s *scheduleService) Replace(ctx context.Context, caller *models.User, id uint, in ScheduleInput) (*models.Schedule, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, caller, id, ScheduleUpdate{Name: &in.Name, Lessons: in.Lessons})
}

func (s *scheduleService) update(ctx context.Context, caller *models.User, id uint, in ScheduleUpdate) (*models.Schedule, error) {
	var updated *models.Schedule
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		current, err := getSchedule(ctx, tx, caller, id)
		if err != nil {
			return err
		}

		if in.Name != nil {
			if err := tx.Schedules().UpdateName(ctx, id, strings.TrimSpace(*in.Name)); err != nil {
				return fmt.Errorf("更新课表名称失败: %w", err)
			}
		}

		if in.Lessons != nil {
			lessons, err := createLessons(ctx, tx, caller.ID, in.Lessons)
			if err != nil {
				return err
			}
			if err := tx.Schedules().ReplaceLessons(ctx, id, lessonIDs(lessons)); err != nil {
				return fmt.Errorf("替换课表课程失败: %w", err)
			}
			if err := tx.Lessons().DeleteByIDs(ctx, caller.ID, lessonIDs(current.Lessons)); err != nil {
				return fmt.Errorf("删除旧课程失败: %w", err)
			}
		}

		updated, err = getSchedule(ctx, tx, caller, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *scheduleService) Delete(ctx context.Context, caller *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx storage.Store) error {
		current, err := getSchedule(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if err := tx.Schedules().Delete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrScheduleNotFound
			}
			return err
		}
		return tx.Lessons().DeleteByIDs(ctx, caller.ID, lessonIDs(current.Lessons))
	})
}

func (s *scheduleService) ListLessons(ctx context.Context, caller *models.User) ([]models.Lesson, error) {
	return s.store.Lessons().ListByUser(ctx, caller.ID)
}

func (s *scheduleService) GetLesson(ctx context.Context, caller *models.User, id uint) (*models.Lesson, error) {
	lesson, err := s.store.Lessons().GetByIDForUser(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

func lessonIDs(lessons []models.Lesson) []uint {
	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return ids
}
