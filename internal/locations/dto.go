package locations

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// LocationDTO is the admin view of a stock location.
type LocationDTO struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Type      enums.LocationType `json:"type"`
	Address   *string            `json:"address,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// LocationInput carries the mutable location fields for create and update.
type LocationInput struct {
	Name    string             `json:"name" validate:"required"`
	Type    enums.LocationType `json:"type" validate:"required"`
	Address *string            `json:"address,omitempty"`
}

func (in LocationInput) normalized() LocationInput {
	out := LocationInput{
		Name: strings.TrimSpace(in.Name),
		Type: enums.LocationType(strings.ToUpper(strings.TrimSpace(string(in.Type)))),
	}
	if in.Address != nil {
		addr := strings.TrimSpace(*in.Address)
		if addr != "" {
			out.Address = &addr
		}
	}
	return out
}

func FromModel(l *models.Location) LocationDTO {
	return LocationDTO{
		ID:        l.ID,
		Name:      l.Name,
		Type:      l.Type,
		Address:   l.Address,
		CreatedAt: l.CreatedAt,
	}
}
