package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"schedule-go/internal/events"
	"schedule-go/internal/models"
	"schedule-go/internal/storage"
	"schedule-go/internal/validation"
)

// FriendLinkInput is the body of a friend request. UserEmail is optional and,
// when present, must be the caller's own email.
type FriendLinkInput struct {
	UserEmail   string `json:"user_email" validate:"omitempty,email"`
	FriendEmail string `json:"friend_email" validate:"required,email,max=255"`
}

// FriendLinkUpdate is the body of an approval change.
type FriendLinkUpdate struct {
	IsApproved *bool `json:"is_approved" validate:"required"`
}

// FriendshipService manages the caller's friend links. Only the two
// participants of a link can see or change it.
type FriendshipService interface {
	List(ctx context.Context, caller *models.User, approved *bool) ([]models.UserFriends, error)
	Get(ctx context.Context, caller *models.User, id uint) (*models.UserFriends, error)
	Create(ctx context.Context, caller *models.User, in FriendLinkInput) (*models.UserFriends, error)
	// SetApproval may only be called by the target of the link.
	SetApproval(ctx context.Context, caller *models.User, id uint, in FriendLinkUpdate) (*models.UserFriends, error)
	Delete(ctx context.Context, caller *models.User, id uint) error
}

type friendshipService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewFriendshipService creates a new FriendshipService. publisher may be nil.
func NewFriendshipService(store storage.Store, publisher events.Publisher) FriendshipService {
	return &friendshipService{store: store, publisher: publisher}
}

func (s *friendshipService) List(ctx context.Context, caller *models.User, approved *bool) ([]models.UserFriends, error) {
	links, err := s.store.Friends().ListForUser(ctx, caller.ID, approved)
	if err != nil {
		return nil, fmt.Errorf("获取好友列表失败: %w", err)
	}
	return links, nil
}

// getForParticipant hides links the caller is not part of.
func getForParticipant(ctx context.Context, store storage.Store, caller *models.User, id uint) (*models.UserFriends, error) {
	link, err := store.Friends().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFriendLinkNotFound
		}
		return nil, err
	}
	if !link.HasParticipant(caller.ID) {
		return nil, ErrFriendLinkNotFound
	}
	return link, nil
}

func (s *friendshipService) Get(ctx context.Context, caller *models.User, id uint) (*models.UserFriends, error) {
	return getForParticipant(ctx, s.store, caller, id)
}

func (s *friendshipService) Create(ctx context.Context, caller *models.User, in FriendLinkInput) (*models.UserFriends, error) {
	in.UserEmail = NormalizeEmail(in.UserEmail)
	in.FriendEmail = NormalizeEmail(in.FriendEmail)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.UserEmail != "" && in.UserEmail != caller.Email {
		return nil, ErrPermissionDenied
	}
	if in.FriendEmail == caller.Email {
		return nil, validation.NewError("friend_email", "friend_email cannot be your own email")
	}

	var created *models.UserFriends
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		target, err := tx.Users().GetByEmail(ctx, in.FriendEmail)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return validation.NewError("friend_email", "no user is registered with this email")
			}
			return err
		}

		existing, err := tx.Friends().FindBetween(ctx, caller.ID, target.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrFriendshipExists
		}

		link := &models.UserFriends{UserID: caller.ID, FriendID: target.ID}
		if err := tx.Friends().Create(ctx, link); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ErrFriendshipExists
			}
			return fmt.Errorf("创建好友关系失败: %w", err)
		}
		created, err = tx.Friends().GetByID(ctx, link.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewFriendshipEvent(events.FriendLinkRequested, created, caller.ID))
	return created, nil
}

func (s *friendshipService) SetApproval(ctx context.Context, caller *models.User, id uint, in FriendLinkUpdate) (*models.UserFriends, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var (
		updated  *models.UserFriends
		approved bool
	)
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		link, err := getForParticipant(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if link.FriendID != caller.ID {
			return ErrNotFriendLinkTarget
		}
		approved = *in.IsApproved && !link.IsApproved
		if err := tx.Friends().SetApproved(ctx, id, *in.IsApproved); err != nil {
			return err
		}
		updated, err = tx.Friends().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if approved {
		s.publish(ctx, events.NewFriendshipEvent(events.FriendLinkApproved, updated, caller.ID))
	}
	return updated, nil
}

func (s *friendshipService) Delete(ctx context.Context, caller *models.User, id uint) error {
	var removed *models.UserFriends
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		link, err := getForParticipant(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if err := tx.Friends().Delete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrFriendLinkNotFound
			}
			return err
		}
		removed = link
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.NewFriendshipEvent(events.FriendLinkRemoved, removed, caller.ID))
	return nil
}

// publish runs after commit; a failed notification does not undo the change.
func (s *friendshipService) publish(ctx context.Context, event events.FriendshipEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFriendship(ctx, event); err != nil {
		log.Printf("发布好友事件 %s (link %d) 失败: %v", event.Type, event.Link.ID, err)
	}
}
