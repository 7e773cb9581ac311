package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schedule-go/internal/models"
	"schedule-go/internal/storage"
	"schedule-go/internal/validation"
)

// LocationInput is the body of a location create request.
type LocationInput struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// LocationService lists locations and lets staff add new ones.
type LocationService interface {
	List(ctx context.Context) ([]models.Location, error)
	Create(ctx context.Context, caller *models.User, in LocationInput) (*models.Location, error)
}

type locationService struct {
	store storage.Store
}

// NewLocationService creates a new LocationService.
func NewLocationService(store storage.Store) LocationService {
	return &locationService{store: store}
}

func (s *locationService) List(ctx context.Context) ([]models.Location, error) {
	return s.store.Locations().List(ctx)
}

func (s *locationService) Create(ctx context.Context, caller *models.User, in LocationInput) (*models.Location, error) {
	if !caller.IsStaff && !caller.IsSuperuser {
		return nil, ErrPermissionDenied
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	location := &models.Location{Name: strings.TrimSpace(in.Name)}
	if err := s.store.Locations().Create(ctx, location); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrLocationExists
		}
		return nil, fmt.Errorf("创建地点失败: %w", err)
	}
	return location, nil
}
