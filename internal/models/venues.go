package models

import (
	"time"

	"github.com/google/uuid"
)

const VenuesTable = "venues"

// VenueAreas is the allow-list of physical areas a venue may belong to.
var VenueAreas = []string{
	"Main Worship Hall",
	"Phase 2 Area 1",
	"Phase 2 Area 2",
	"NxtGen Room",
}

func IsVenueArea(area string) bool {
	for _, a := range VenueAreas {
		if a == area {
			return true
		}
	}
	return false
}

type Venue struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Area        string    `json:"area"`
	CapacityMin int       `json:"capacity_min"`
	CapacityMax int       `json:"capacity_max"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VenueInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Area        string `json:"area" validate:"required"`
	CapacityMin int    `json:"capacity_min" validate:"gte=0"`
	CapacityMax int    `json:"capacity_max" validate:"gtefield=CapacityMin"`
	Description string `json:"description" validate:"max=2000"`
	IsActive    *bool  `json:"is_active"`
}

type VenuePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Area        *string `json:"area"`
	CapacityMin *int    `json:"capacity_min" validate:"omitempty,gte=0"`
	CapacityMax *int    `json:"capacity_max" validate:"omitempty,gte=0"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}
