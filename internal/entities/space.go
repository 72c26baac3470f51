package entities

import (
	"time"

	"github.com/google/uuid"
)

type SpaceRequest struct {
	PlaceName         string  `json:"place_name"`
	Address           string  `json:"address"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	PricePerHourCar   float64 `json:"price_per_hour_car"`
	TotalSlotsCar     int     `json:"total_slots_car"`
	PricePerHourBike  float64 `json:"price_per_hour_bike"`
	TotalSlotsBike    int     `json:"total_slots_bike"`
	PricePerHourOther float64 `json:"price_per_hour_other"`
	TotalSlotsOther   int     `json:"total_slots_other"`
	Description       string  `json:"description"`
}

// SpaceUpdate carries partial updates; nil fields are left untouched.
// Slot counts may only grow; a decrease is ignored (see SpaceRepository).
type SpaceUpdate struct {
	PlaceName         *string  `json:"place_name,omitempty"`
	Address           *string  `json:"address,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	PricePerHourCar   *float64 `json:"price_per_hour_car,omitempty"`
	TotalSlotsCar     *int     `json:"total_slots_car,omitempty"`
	PricePerHourBike  *float64 `json:"price_per_hour_bike,omitempty"`
	TotalSlotsBike    *int     `json:"total_slots_bike,omitempty"`
	PricePerHourOther *float64 `json:"price_per_hour_other,omitempty"`
	TotalSlotsOther   *int     `json:"total_slots_other,omitempty"`
	Description       *string  `json:"description,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
}

// CategoryCounts is the total/currently-free slot tally for one category.
type CategoryCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

type SpaceSummary struct {
	ID                uuid.UUID      `json:"id"`
	OwnerID           uuid.UUID      `json:"owner_id"`
	PlaceName         string         `json:"place_name"`
	Address           string         `json:"address"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	PricePerHourCar   float64        `json:"price_per_hour_car"`
	PricePerHourBike  float64        `json:"price_per_hour_bike"`
	PricePerHourOther float64        `json:"price_per_hour_other"`
	Description       string         `json:"description,omitempty"`
	IsActive          bool           `json:"is_active"`
	OwnerName         string         `json:"owner_name,omitempty"`
	OwnerPhone        string         `json:"owner_phone,omitempty"`
	Car               CategoryCounts `json:"car"`
	Bike              CategoryCounts `json:"bike"`
	Other             CategoryCounts `json:"other"`
	CreatedAt         time.Time      `json:"created_at"`
}
