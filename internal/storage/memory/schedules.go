package memory

import (
	"context"
	"errors"

	"schedule-go/internal/models"
	"schedule-go/internal/storage"
)

// ErrInvalidTimeWindow mirrors the lessons start_time < end_time check.
var ErrInvalidTimeWindow = errors.New("lesson start_time must be before end_time")

type scheduleRepository struct {
	s *Store
}

// withLessons fills Lessons ordered by id.
func withLessons(d *dataset, sch models.Schedule) models.Schedule {
	sch.Lessons = []models.Lesson{}
	for _, id := range sortedIDs(d.lessons, nil) {
		if containsID(d.scheduleLessons[sch.ID], id) {
			sch.Lessons = append(sch.Lessons, d.lessons[id])
		}
	}
	return sch
}

func (r *scheduleRepository) Create(_ context.Context, schedule *models.Schedule) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[schedule.UserID]; !ok {
		return storage.ErrNotFound
	}
	for _, sch := range d.schedules {
		if sch.UserID == schedule.UserID {
			return storage.ErrDuplicate
		}
	}
	lessonIDs := make([]uint, 0, len(schedule.Lessons))
	for _, l := range schedule.Lessons {
		if _, ok := d.lessons[l.ID]; !ok {
			return storage.ErrNotFound
		}
		lessonIDs = append(lessonIDs, l.ID)
	}
	d.seq.schedule++
	schedule.ID = d.seq.schedule
	schedule.CreatedAt = now()
	schedule.UpdatedAt = schedule.CreatedAt
	stored := *schedule
	stored.Lessons = nil
	d.schedules[schedule.ID] = stored
	d.scheduleLessons[schedule.ID] = lessonIDs
	return nil
}

func (r *scheduleRepository) GetByIDForUser(_ context.Context, id, userID uint) (*models.Schedule, error) {
	defer r.s.lock()()
	d := r.s.data
	sch, ok := d.schedules[id]
	if !ok || sch.UserID != userID {
		return nil, storage.ErrNotFound
	}
	sch = withLessons(d, sch)
	return &sch, nil
}

func (r *scheduleRepository) ListByUser(_ context.Context, userID uint) ([]models.Schedule, error) {
	defer r.s.lock()()
	d := r.s.data
	ids := sortedIDs(d.schedules, func(s models.Schedule) bool { return s.UserID == userID })
	out := make([]models.Schedule, 0, len(ids))
	for _, id := range ids {
		out = append(out, withLessons(d, d.schedules[id]))
	}
	return out, nil
}

func (r *scheduleRepository) ExistsForUser(_ context.Context, userID uint) (bool, error) {
	defer r.s.lock()()
	for _, sch := range r.s.data.schedules {
		if sch.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *scheduleRepository) UpdateName(_ context.Context, id uint, name string) error {
	defer r.s.lock()()
	d := r.s.data
	sch, ok := d.schedules[id]
	if !ok {
		return storage.ErrNotFound
	}
	sch.Name = name
	sch.UpdatedAt = now()
	d.schedules[id] = sch
	return nil
}

func (r *scheduleRepository) ReplaceLessons(_ context.Context, scheduleID uint, lessonIDs []uint) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.schedules[scheduleID]; !ok {
		return storage.ErrNotFound
	}
	ids := make([]uint, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		if _, ok := d.lessons[id]; !ok {
			return storage.ErrNotFound
		}
		if containsID(ids, id) {
			return storage.ErrDuplicate
		}
		ids = append(ids, id)
	}
	d.scheduleLessons[scheduleID] = ids
	return nil
}

func (r *scheduleRepository) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.schedules[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.schedules, id)
	delete(d.scheduleLessons, id)
	return nil
}

type lessonRepository struct {
	s *Store
}

func deleteLesson(d *dataset, id uint) {
	delete(d.lessons, id)
	for schedID, ids := range d.scheduleLessons {
		d.scheduleLessons[schedID] = removeID(ids, id)
	}
}

func (r *lessonRepository) Create(_ context.Context, lesson *models.Lesson) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[lesson.UserID]; !ok {
		return storage.ErrNotFound
	}
	if !lesson.StartTime.Before(lesson.EndTime) {
		return ErrInvalidTimeWindow
	}
	d.seq.lesson++
	lesson.ID = d.seq.lesson
	lesson.CreatedAt = now()
	lesson.UpdatedAt = lesson.CreatedAt
	d.lessons[lesson.ID] = *lesson
	return nil
}

func (r *lessonRepository) GetByIDForUser(_ context.Context, id, userID uint) (*models.Lesson, error) {
	defer r.s.lock()()
	l, ok := r.s.data.lessons[id]
	if !ok || l.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &l, nil
}

func (r *lessonRepository) ListByUser(_ context.Context, userID uint) ([]models.Lesson, error) {
	defer r.s.lock()()
	d := r.s.data
	ids := sortedIDs(d.lessons, func(l models.Lesson) bool { return l.UserID == userID })
	out := make([]models.Lesson, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.lessons[id])
	}
	return out, nil
}

func (r *lessonRepository) DeleteByIDs(_ context.Context, userID uint, ids []uint) error {
	defer r.s.lock()()
	d := r.s.data
	for _, id := range ids {
		if l, ok := d.lessons[id]; ok && l.UserID == userID {
			deleteLesson(d, id)
		}
	}
	return nil
}

func (r *lessonRepository) CountByUser(_ context.Context, userID uint) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, l := range r.s.data.lessons {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}
