package memory

import (
	"context"

	"schedule-go/internal/models"
	"schedule-go/internal/storage"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	defer r.s.lock()()
	d := r.s.data
	for _, u := range d.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	d.seq.user++
	user.ID = d.seq.user
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.FavoriteLocations = nil
	d.users[user.ID] = stored
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	defer r.s.lock()()
	d := r.s.data
	u, ok := d.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.FavoriteLocations = []models.Location{}
	for _, locID := range sortedIDs(d.locations, nil) {
		if containsID(d.favorites[id], locID) {
			u.FavoriteLocations = append(u.FavoriteLocations, d.locations[locID])
		}
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *userRepository) Update(_ context.Context, user *models.User) error {
	defer r.s.lock()()
	d := r.s.data
	existing, ok := d.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	for id, u := range d.users {
		if id != user.ID && u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now()
	stored := *user
	stored.FavoriteLocations = nil
	d.users[user.ID] = stored
	return nil
}

// Delete cascades like the SQL schema does.
func (r *userRepository) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.users, id)
	delete(d.favorites, id)
	for linkID, f := range d.friends {
		if f.HasParticipant(id) {
			delete(d.friends, linkID)
		}
	}
	for schedID, sch := range d.schedules {
		if sch.UserID == id {
			delete(d.schedules, schedID)
			delete(d.scheduleLessons, schedID)
		}
	}
	for lessonID, l := range d.lessons {
		if l.UserID == id {
			deleteLesson(d, lessonID)
		}
	}
	return nil
}

func (r *userRepository) SetFavoriteLocations(_ context.Context, userID uint, locationIDs []uint) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[userID]; !ok {
		return storage.ErrNotFound
	}
	ids := make([]uint, 0, len(locationIDs))
	for _, id := range locationIDs {
		if _, ok := d.locations[id]; !ok {
			return storage.ErrNotFound
		}
		if !containsID(ids, id) {
			ids = append(ids, id)
		}
	}
	d.favorites[userID] = ids
	return nil
}

func (r *userRepository) Count(_ context.Context) (int64, error) {
	defer r.s.lock()()
	return int64(len(r.s.data.users)), nil
}

type locationRepository struct {
	s *Store
}

func (r *locationRepository) Create(_ context.Context, location *models.Location) error {
	defer r.s.lock()()
	d := r.s.data
	for _, l := range d.locations {
		if l.Name == location.Name {
			return storage.ErrDuplicate
		}
	}
	d.seq.location++
	location.ID = d.seq.location
	d.locations[location.ID] = *location
	return nil
}

func (r *locationRepository) List(_ context.Context) ([]models.Location, error) {
	defer r.s.lock()()
	d := r.s.data
	out := []models.Location{}
	for _, id := range sortedIDs(d.locations, nil) {
		out = append(out, d.locations[id])
	}
	return out, nil
}

func (r *locationRepository) GetByIDs(_ context.Context, ids []uint) ([]models.Location, error) {
	defer r.s.lock()()
	d := r.s.data
	out := []models.Location{}
	for _, id := range sortedIDs(d.locations, nil) {
		if containsID(ids, id) {
			out = append(out, d.locations[id])
		}
	}
	return out, nil
}
