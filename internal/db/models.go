package db

import (
	"time"

	"github.com/google/uuid"
)

// VehicleType is the fixed set of vehicle categories a slot can belong to.
// Each category has its own slot pool and hourly rate on a parking space.
type VehicleType string

const (
	VehicleCar   VehicleType = "car"
	VehicleBike  VehicleType = "bike"
	VehicleOther VehicleType = "other"
)

// VehicleTypes lists every category in slot-generation order.
var VehicleTypes = []VehicleType{VehicleCar, VehicleBike, VehicleOther}

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleCar, VehicleBike, VehicleOther:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// CancelledBy records which side cancelled a booking.
type CancelledBy string

const (
	CancelledByUser  CancelledBy = "user"
	CancelledByOwner CancelledBy = "owner"
)

type User struct {
	ID        uuid.UUID
	AuthUID   string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ParkingSpace struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	PlaceName         string
	Address           string
	Latitude          float64
	Longitude         float64
	PricePerHourCar   float64
	TotalSlotsCar     int
	PricePerHourBike  float64
	TotalSlotsBike    int
	PricePerHourOther float64
	TotalSlotsOther   int
	Description       string
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HourlyRate returns the rate for the given category. The three rate columns
// are a fixed enumeration; there is no dynamic column lookup by name.
func (s *ParkingSpace) HourlyRate(vt VehicleType) float64 {
	switch vt {
	case VehicleBike:
		return s.PricePerHourBike
	case VehicleOther:
		return s.PricePerHourOther
	default:
		return s.PricePerHourCar
	}
}

// TotalSlots returns the configured slot count for the given category.
func (s *ParkingSpace) TotalSlots(vt VehicleType) int {
	switch vt {
	case VehicleBike:
		return s.TotalSlotsBike
	case VehicleOther:
		return s.TotalSlotsOther
	default:
		return s.TotalSlotsCar
	}
}

type ParkingSlot struct {
	ID          uuid.UUID
	ParkingID   uuid.UUID
	SlotNumber  int
	VehicleType VehicleType
	IsActive    bool
}

type Booking struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ParkingID   uuid.UUID
	SlotID      uuid.UUID
	VehicleType VehicleType
	StartTime   time.Time
	EndTime     *time.Time // nil = open-ended
	HourlyRate  float64
	TotalAmount *float64 // set whenever EndTime is known
	Status      BookingStatus
	CancelledBy *CancelledBy
	CreatedAt   time.Time
}
