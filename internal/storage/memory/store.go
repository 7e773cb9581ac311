// Package memory is an in-process implementation of storage.Store. It backs
// DATABASE.TYPE=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"schedule-go/internal/models"
	"schedule-go/internal/storage"
)

type dataset struct {
	users           map[uint]models.User
	favorites       map[uint][]uint
	locations       map[uint]models.Location
	friends         map[uint]models.UserFriends
	schedules       map[uint]models.Schedule
	scheduleLessons map[uint][]uint
	lessons         map[uint]models.Lesson
	seq             sequences
}

type sequences struct {
	user, location, friend, schedule, lesson uint
}

func newDataset() *dataset {
	return &dataset{
		users:           map[uint]models.User{},
		favorites:       map[uint][]uint{},
		locations:       map[uint]models.Location{},
		friends:         map[uint]models.UserFriends{},
		schedules:       map[uint]models.Schedule{},
		scheduleLessons: map[uint][]uint{},
		lessons:         map[uint]models.Lesson{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.favorites {
		c.favorites[k] = append([]uint(nil), v...)
	}
	for k, v := range d.locations {
		c.locations[k] = v
	}
	for k, v := range d.friends {
		c.friends[k] = v
	}
	for k, v := range d.schedules {
		c.schedules[k] = v
	}
	for k, v := range d.scheduleLessons {
		c.scheduleLessons[k] = append([]uint(nil), v...)
	}
	for k, v := range d.lessons {
		c.lessons[k] = v
	}
	c.seq = d.seq
	return c
}

// Store keeps every table in maps guarded by one mutex. A transaction works
// on a copy of the data that replaces the original only when fn succeeds.
type Store struct {
	mu   *sync.Mutex
	data *dataset
	tx   bool
}

var _ storage.Store = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newDataset()}
}

// lock is a no-op inside a transaction; the root lock is already held.
func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() storage.UserRepository { return &userRepository{s: s} }
func (s *Store) Locations() storage.LocationRepository { return &locationRepository{s: s} }
func (s *Store) Friends() storage.UserFriendsRepository { return &userFriendsRepository{s: s} }
func (s *Store) Schedules() storage.ScheduleRepository { return &scheduleRepository{s: s} }
func (s *Store) Lessons() storage.LessonRepository { return &lessonRepository{s: s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx storage.Store) error) error {
	unlock := s.lock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	child := &Store{mu: s.mu, data: s.data.clone(), tx: true}
	if err := fn(child); err != nil {
		return err
	}
	s.data = child.data
	return nil
}

func now() time.Time { return time.Now().UTC() }

func sortedIDs[T any](m map[uint]T, keep func(T) bool) []uint {
	ids := make([]uint, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
