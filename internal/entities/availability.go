package entities

import (
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
)

const (
	SlotAvailable = "available"
	SlotOccupied  = "occupied"
)

// SlotStatus is one slot's state for a requested time window. OccupiedUntil is
// the end of the earliest overlapping booking; nil for an open-ended booking.
type SlotStatus struct {
	SlotID        uuid.UUID      `json:"slot_id"`
	SlotNumber    int            `json:"slot_number"`
	VehicleType   db.VehicleType `json:"vehicle_type"`
	IsActive      bool           `json:"is_active"`
	Status        string         `json:"status"`
	OccupiedFrom  *time.Time     `json:"occupied_from,omitempty"`
	OccupiedUntil *time.Time     `json:"occupied_until,omitempty"`
}

// SpaceDetail is a space with the per-slot availability for a window.
// The default window is [now, +inf): "is it free right now and onward".
type SpaceDetail struct {
	SpaceSummary
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   *time.Time   `json:"window_end,omitempty"`
	Slots       []SlotStatus `json:"slots"`
}
