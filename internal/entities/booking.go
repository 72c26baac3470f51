package entities

import (
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
)

type BookingRequest struct {
	ParkingID   uuid.UUID      `json:"parking_id"`
	VehicleType db.VehicleType `json:"vehicle_type"`
	SlotID      *uuid.UUID     `json:"slot_id,omitempty"` // pin the booking to one specific slot
	StartTime   time.Time      `json:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty"` // nil = open-ended
}

type EndBookingRequest struct {
	EndTime time.Time `json:"end_time"`
}

type BookingPricing struct {
	HourlyRate  float64  `json:"hourly_rate"`
	TotalAmount *float64 `json:"total_amount"`
	IsOpenEnded bool     `json:"is_open_ended"`
}

type BookingResponse struct {
	Booking    *db.Booking    `json:"booking"`
	SlotNumber int            `json:"slot_number"`
	Pricing    BookingPricing `json:"pricing"`
}

// BookingDetail is a booking joined with its space, slot and counterparty,
// as returned by the list and detail queries.
type BookingDetail struct {
	ID          uuid.UUID        `json:"id"`
	ParkingID   uuid.UUID        `json:"parking_id"`
	PlaceName   string           `json:"place_name"`
	Address     string           `json:"address"`
	SlotNumber  int              `json:"slot_number"`
	VehicleType db.VehicleType   `json:"vehicle_type"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     *time.Time       `json:"end_time,omitempty"`
	HourlyRate  float64          `json:"hourly_rate"`
	TotalAmount *float64         `json:"total_amount,omitempty"`
	Status      db.BookingStatus `json:"status"`
	CancelledBy *db.CancelledBy  `json:"cancelled_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`

	// Counterparty contact: the owner on a renter's listing, the renter on
	// an owner's listing.
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}
