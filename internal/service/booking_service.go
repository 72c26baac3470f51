package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
	"parkease/internal/repository"
	"parkease/internal/service/ports"
)

// Every booking bills at least 30 minutes, no matter how short it really was.
const minBillableHours = 0.5

// BookingService runs slot allocation and the booking lifecycle. Every write
// goes through one ledger transaction; the service holds no state of its own
// between calls.
type BookingService struct {
	ledger   ports.Ledger
	bookings *repository.BookingRepository
	notifier ports.Notifier
}

func NewBookingService(ledger ports.Ledger, bookings *repository.BookingRepository, notifier ports.Notifier) *BookingService {
	return &BookingService{
		ledger:   ledger,
		bookings: bookings,
		notifier: notifier,
	}
}

// bookingAmount computes rate x billable hours rounded to two decimals.
func bookingAmount(rate float64, start, end time.Time) float64 {
	hours := end.Sub(start).Hours()
	if hours < minBillableHours {
		hours = minBillableHours
	}
	return math.Round(rate*hours*100) / 100
}

// CreateBooking allocates one slot and confirms the booking in a single
// transaction, or fails without side effects:
//
//	lock space (exclusive) -> read rate -> lock lowest-numbered free slot
//	-> insert confirmed row -> commit.
//
// The space lock is what rules out double booking: a concurrent caller on the
// same space blocks until this transaction resolves, then evaluates occupancy
// against the committed bookings. Start may be in the past (a booking that
// began "just now"); only end > start is enforced when end is known.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *entities.BookingRequest) (*db.Booking, error) {
	if req.EndTime != nil && !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrInvalidInterval
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	space, err := tx.LockSpace(ctx, req.ParkingID)
	if err != nil {
		return nil, err
	}
	if !space.IsActive {
		return nil, apperrors.ErrInactive
	}
	rate := space.HourlyRate(req.VehicleType)

	slot, err := tx.FindFreeSlot(ctx, ports.FreeSlotQuery{
		ParkingID:   req.ParkingID,
		VehicleType: req.VehicleType,
		SlotID:      req.SlotID,
		Start:       req.StartTime,
		End:         req.EndTime,
	})
	if err != nil {
		return nil, err
	}

	booking := &db.Booking{
		ID:          uuid.New(),
		UserID:      userID,
		ParkingID:   req.ParkingID,
		SlotID:      slot.ID,
		VehicleType: slot.VehicleType,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		HourlyRate:  rate,
		Status:      db.BookingConfirmed,
	}
	if req.EndTime != nil {
		amount := bookingAmount(rate, req.StartTime, *req.EndTime)
		booking.TotalAmount = &amount
	}

	if err := tx.InsertBooking(ctx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("booking %s confirmed: space %s slot %d (%s)", booking.ID, booking.ParkingID, slot.SlotNumber, booking.VehicleType)
	s.notifier.BookingConfirmed(booking)
	return booking, nil
}

// EndBooking closes out a booking with the renter-supplied end time, billing
// against the rate snapshotted at creation. The booking row stays locked from
// read to update so a concurrent cancellation cannot slip in between.
func (s *BookingService) EndBooking(ctx context.Context, bookingID, userID uuid.UUID, end time.Time) (*db.Booking, error) {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, _, err := tx.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		// Renters only see their own bookings; someone else's id is a miss.
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}
	if booking.Status != db.BookingConfirmed {
		return nil, fmt.Errorf("cannot end a booking with status %q: %w", booking.Status, apperrors.ErrInvalidState)
	}
	if !end.After(booking.StartTime) {
		return nil, apperrors.ErrInvalidInterval
	}

	amount := bookingAmount(booking.HourlyRate, booking.StartTime, end)
	booking.EndTime = &end
	booking.TotalAmount = &amount
	booking.Status = db.BookingCompleted

	if err := tx.CompleteBooking(ctx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("booking %s completed: %.2f for %s", booking.ID, amount, end.Sub(booking.StartTime))
	return booking, nil
}

// CancelBooking is the renter-side cancellation. Terminal states never
// transition again: a second cancel, or a cancel after close-out, fails with
// InvalidState.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*db.Booking, error) {
	return s.cancel(ctx, bookingID, db.CancelledByUser, func(b *db.Booking, ownerID uuid.UUID) error {
		if b.UserID != userID {
			return fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
		}
		return nil
	})
}

// OwnerCancelBooking cancels on behalf of the space owner, verified through
// the booking -> space -> owner join read under the same row lock.
func (s *BookingService) OwnerCancelBooking(ctx context.Context, bookingID, ownerID uuid.UUID) (*db.Booking, error) {
	return s.cancel(ctx, bookingID, db.CancelledByOwner, func(b *db.Booking, spaceOwner uuid.UUID) error {
		if spaceOwner != ownerID {
			return fmt.Errorf("cancel booking %s: %w", bookingID, apperrors.ErrUnauthorized)
		}
		return nil
	})
}

func (s *BookingService) cancel(ctx context.Context, bookingID uuid.UUID, by db.CancelledBy, authorize func(*db.Booking, uuid.UUID) error) (*db.Booking, error) {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, spaceOwner, err := tx.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(booking, spaceOwner); err != nil {
		return nil, err
	}
	if booking.Status != db.BookingConfirmed {
		return nil, fmt.Errorf("cannot cancel a booking with status %q: %w", booking.Status, apperrors.ErrInvalidState)
	}

	if err := tx.CancelBooking(ctx, bookingID, by); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	booking.Status = db.BookingCancelled
	booking.CancelledBy = &by
	log.Printf("booking %s cancelled by %s", booking.ID, by)
	s.notifier.BookingCancelled(booking)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*entities.BookingDetail, error) {
	return s.bookings.GetByID(ctx, bookingID, callerID)
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]entities.BookingDetail, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) ListOwnerBookings(ctx context.Context, ownerID uuid.UUID) ([]entities.BookingDetail, error) {
	return s.bookings.ListByOwner(ctx, ownerID)
}

// SlotNumber exposes the slot's bay number for booking responses.
func (s *BookingService) SlotNumber(ctx context.Context, slotID uuid.UUID) (int, error) {
	return s.bookings.SlotNumber(ctx, slotID)
}
