package services

import (
	"context"
	"errors"
	"fmt"

	"schedule-go/internal/auth"
	"schedule-go/internal/models"
	"schedule-go/internal/storage"
	"schedule-go/internal/validation"
)

// ProfileUpdate carries the fields a user may change on their own account.
// Nil fields are left as they are.
type ProfileUpdate struct {
	Name                *string `json:"name" validate:"omitnil,max=255"`
	FirstName           *string `json:"first_name" validate:"omitnil,max=255"`
	LastName            *string `json:"last_name" validate:"omitnil,max=255"`
	Password            *string `json:"password" validate:"omitnil,min=6,max=128"`
	FavoriteLocationIDs *[]uint `json:"favorite_locations"`
}

// UserService 定义了用户相关服务的接口。
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error)
	// DeleteAccount removes the user together with their schedule, lessons
	// and friend links.
	DeleteAccount(ctx context.Context, userID uint) error
}

// userService 是 UserService 的实现。
type userService struct {
	store storage.Store
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(store storage.Store) UserService {
	return &userService{store: store}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户 %d 失败: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile 更新用户的个人资料，所有修改在同一事务中完成。
func (s *userService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	if err := validation.Struct(update); err != nil {
		return nil, err
	}

	var passwordHash string
	if update.Password != nil {
		hashed, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("密码哈希失败: %w", err)
		}
		passwordHash = hashed
	}

	var updated *models.User
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if update.Name != nil {
			user.Name = *update.Name
		}
		if update.FirstName != nil {
			user.FirstName = *update.FirstName
		}
		if update.LastName != nil {
			user.LastName = *update.LastName
		}
		if passwordHash != "" {
			user.PasswordHash = passwordHash
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return fmt.Errorf("更新用户 %d 资料失败: %w", userID, err)
		}

		if update.FavoriteLocationIDs != nil {
			ids := *update.FavoriteLocationIDs
			found, err := tx.Locations().GetByIDs(ctx, ids)
			if err != nil {
				return err
			}
			if len(found) != countDistinct(ids) {
				return validation.NewError("favorite_locations", "favorite_locations contains an unknown location")
			}
			if err := tx.Users().SetFavoriteLocations(ctx, userID, ids); err != nil {
				return fmt.Errorf("更新收藏地点失败: %w", err)
			}
		}

		updated, err = tx.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.store.Users().Delete(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("删除用户 %d 失败: %w", userID, err)
	}
	return nil
}

func countDistinct(ids []uint) int {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
