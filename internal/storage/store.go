package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories and runs them inside transactions.
// Repositories obtained from the Store passed to fn share fn's transaction.
type Store interface {
	Users() UserRepository
	Locations() LocationRepository
	Friends() UserFriendsRepository
	Schedules() ScheduleRepository
	Lessons() LessonRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository { return NewGormUserRepository(s.db) }
func (s *gormStore) Locations() LocationRepository { return NewGormLocationRepository(s.db) }
func (s *gormStore) Friends() UserFriendsRepository { return NewGormUserFriendsRepository(s.db) }
func (s *gormStore) Schedules() ScheduleRepository { return NewGormScheduleRepository(s.db) }
func (s *gormStore) Lessons() LessonRepository { return NewGormLessonRepository(s.db) }

// Transaction runs fn in a database transaction. Returning an error from fn
// rolls back every write made through tx.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// translateError maps GORM errors onto the storage sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
