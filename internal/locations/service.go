package locations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type locationRepository interface {
	Create(ctx context.Context, location *models.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
	Update(ctx context.Context, location *models.Location) error
}

// Service exposes location administration.
type Service interface {
	Create(ctx context.Context, input LocationInput) (*LocationDTO, error)
	Update(ctx context.Context, id uuid.UUID, input LocationInput) (*LocationDTO, error)
	List(ctx context.Context) ([]LocationDTO, error)
}

type service struct {
	repo locationRepository
}

// NewService builds a location service.
func NewService(repo locationRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("location repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input LocationInput) (*LocationDTO, error) {
	in, err := validate(input)
	if err != nil {
		return nil, err
	}
	location := &models.Location{Name: in.Name, Type: in.Type, Address: in.Address}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create location")
	}
	dto := FromModel(location)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input LocationInput) (*LocationDTO, error) {
	in, err := validate(input)
	if err != nil {
		return nil, err
	}
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load location")
	}
	location.Name = in.Name
	location.Type = in.Type
	location.Address = in.Address
	if err := s.repo.Update(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update location")
	}
	dto := FromModel(location)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]LocationDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list locations")
	}
	out := make([]LocationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func validate(input LocationInput) (LocationInput, error) {
	in := input.normalized()
	if in.Name == "" {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !in.Type.IsValid() {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "type must be WAREHOUSE or OUTLET")
	}
	return in, nil
}
