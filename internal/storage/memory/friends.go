package memory

import (
	"context"

	"schedule-go/internal/models"
	"schedule-go/internal/storage"
)

type userFriendsRepository struct {
	s *Store
}

// withParticipants fills User and Friend the way Preload does.
func withParticipants(d *dataset, link models.UserFriends) models.UserFriends {
	link.User = d.users[link.UserID]
	link.Friend = d.users[link.FriendID]
	link.User.FavoriteLocations = nil
	link.Friend.FavoriteLocations = nil
	return link
}

func (r *userFriendsRepository) Create(_ context.Context, link *models.UserFriends) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[link.UserID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := d.users[link.FriendID]; !ok {
		return storage.ErrNotFound
	}
	for _, f := range d.friends {
		if f.HasParticipant(link.UserID) && f.HasParticipant(link.FriendID) {
			return storage.ErrDuplicate
		}
	}
	d.seq.friend++
	link.ID = d.seq.friend
	link.CreatedAt = now()
	link.UpdatedAt = link.CreatedAt
	stored := *link
	stored.User = models.User{}
	stored.Friend = models.User{}
	d.friends[link.ID] = stored
	return nil
}

func (r *userFriendsRepository) GetByID(_ context.Context, id uint) (*models.UserFriends, error) {
	defer r.s.lock()()
	d := r.s.data
	link, ok := d.friends[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	link = withParticipants(d, link)
	return &link, nil
}

func (r *userFriendsRepository) FindBetween(_ context.Context, userID1, userID2 uint) (*models.UserFriends, error) {
	defer r.s.lock()()
	d := r.s.data
	for _, id := range sortedIDs(d.friends, nil) {
		link := d.friends[id]
		if (link.UserID == userID1 && link.FriendID == userID2) || (link.UserID == userID2 && link.FriendID == userID1) {
			link = withParticipants(d, link)
			return &link, nil
		}
	}
	return nil, nil
}

func (r *userFriendsRepository) ListForUser(_ context.Context, userID uint, approved *bool) ([]models.UserFriends, error) {
	defer r.s.lock()()
	d := r.s.data
	ids := sortedIDs(d.friends, func(f models.UserFriends) bool {
		return f.HasParticipant(userID) && (approved == nil || f.IsApproved == *approved)
	})
	out := make([]models.UserFriends, 0, len(ids))
	for _, id := range ids {
		out = append(out, withParticipants(d, d.friends[id]))
	}
	return out, nil
}

func (r *userFriendsRepository) SetApproved(_ context.Context, id uint, approved bool) error {
	defer r.s.lock()()
	d := r.s.data
	link, ok := d.friends[id]
	if !ok {
		return storage.ErrNotFound
	}
	link.IsApproved = approved
	link.UpdatedAt = now()
	d.friends[id] = link
	return nil
}

func (r *userFriendsRepository) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.friends[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.friends, id)
	return nil
}
