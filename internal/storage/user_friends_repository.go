package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"schedule-go/internal/models"
)

// UserFriendsRepository defines the interface for friend link data operations.
// Returned links always have User and Friend loaded.
type UserFriendsRepository interface {
	Create(ctx context.Context, link *models.UserFriends) error
	GetByID(ctx context.Context, id uint) (*models.UserFriends, error)
	// FindBetween looks for a link between two users in either direction.
	// It returns nil, nil when there is none.
	FindBetween(ctx context.Context, userID1, userID2 uint) (*models.UserFriends, error)
	// ListForUser returns the links where userID is either participant.
	ListForUser(ctx context.Context, userID uint, approved *bool) ([]models.UserFriends, error)
	SetApproved(ctx context.Context, id uint, approved bool) error
	Delete(ctx context.Context, id uint) error
}

type gormUserFriendsRepository struct {
	db *gorm.DB
}

// NewGormUserFriendsRepository creates a new GORM-based UserFriendsRepository.
func NewGormUserFriendsRepository(db *gorm.DB) UserFriendsRepository {
	return &gormUserFriendsRepository{db: db}
}

func (r *gormUserFriendsRepository) withParticipants(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Preload("Friend")
}

func (r *gormUserFriendsRepository) Create(ctx context.Context, link *models.UserFriends) error {
	return translateError(r.db.WithContext(ctx).Omit("User", "Friend").Create(link).Error)
}

func (r *gormUserFriendsRepository) GetByID(ctx context.Context, id uint) (*models.UserFriends, error) {
	var link models.UserFriends
	if err := r.withParticipants(ctx).First(&link, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &link, nil
}

func (r *gormUserFriendsRepository) FindBetween(ctx context.Context, userID1, userID2 uint) (*models.UserFriends, error) {
	var link models.UserFriends
	err := r.withParticipants(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userID1, userID2, userID2, userID1).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *gormUserFriendsRepository) ListForUser(ctx context.Context, userID uint, approved *bool) ([]models.UserFriends, error) {
	links := []models.UserFriends{}
	q := r.withParticipants(ctx).Where("user_id = ? OR friend_id = ?", userID, userID)
	if approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	err := q.Order("id").Find(&links).Error
	return links, err
}

func (r *gormUserFriendsRepository) SetApproved(ctx context.Context, id uint, approved bool) error {
	res := r.db.WithContext(ctx).Model(&models.UserFriends{}).Where("id = ?", id).Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUserFriendsRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.UserFriends{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
