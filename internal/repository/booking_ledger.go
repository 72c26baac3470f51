package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"parkease/internal/db"
	apperrors "parkease/internal/errors"
	"parkease/internal/service/ports"
)

// Ledger is the Postgres implementation of the reservation ledger
// unit-of-work. All locking happens through row locks inside one
// transaction; nothing is cached between requests.
type Ledger struct {
	DB *sql.DB
}

func NewLedger(database *sql.DB) *Ledger {
	return &Ledger{DB: database}
}

func (l *Ledger) Begin(ctx context.Context) (ports.LedgerTx, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockTimeout)); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("set lock_timeout: %w", err)
	}
	return &ledgerTx{tx: tx}, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

// LockSpace takes an exclusive lock on the space row, serializing every
// allocation against the space. A concurrent allocator blocks here until the
// earlier transaction resolves, so the slot search below always runs on a
// statement snapshot that includes the earlier booking. A plain row-share lock
// is not enough: under READ COMMITTED a transaction blocked on a slot row lock
// resumes on its original qualification and would miss a booking committed
// while it waited. The lock also pins the rate and active flag for the
// duration of the transaction.
func (t *ledgerTx) LockSpace(ctx context.Context, parkingID uuid.UUID) (*db.ParkingSpace, error) {
	query := `
		SELECT id, owner_id, price_per_hour_car, price_per_hour_bike, price_per_hour_other, is_active
		FROM parking_spaces
		WHERE id = $1
		FOR UPDATE`

	var sp db.ParkingSpace
	err := t.tx.QueryRowContext(ctx, query, parkingID).Scan(
		&sp.ID, &sp.OwnerID, &sp.PricePerHourCar, &sp.PricePerHourBike, &sp.PricePerHourOther, &sp.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("parking space %s: %w", parkingID, apperrors.ErrNotFound)
		}
		return nil, mapPQError(fmt.Errorf("lock parking space: %w", err))
	}
	return &sp, nil
}

// FindFreeSlot picks the lowest-numbered active slot of the category that has
// no confirmed booking overlapping [start, end-or-infinity) and locks it with
// FOR UPDATE. Mutual exclusion between allocators comes from the space lock in
// LockSpace; the slot lock keeps the chosen row itself stable against an
// inventory change until the booking commits.
func (t *ledgerTx) FindFreeSlot(ctx context.Context, q ports.FreeSlotQuery) (*db.ParkingSlot, error) {
	windowEnd := farFuture
	if q.End != nil {
		windowEnd = *q.End
	}

	query := `
		SELECT sl.id, sl.parking_id, sl.slot_number, sl.vehicle_type, sl.is_active
		FROM parking_slots sl
		WHERE sl.parking_id = $1
		  AND sl.vehicle_type = $2
		  AND sl.is_active = true`
	args := []interface{}{q.ParkingID, q.VehicleType, q.Start, windowEnd}
	if q.SlotID != nil {
		query += ` AND sl.id = $` + strconv.Itoa(len(args)+1)
		args = append(args, *q.SlotID)
	}
	query += `
		  AND NOT EXISTS (
		    SELECT 1 FROM bookings b
		    WHERE b.slot_id = sl.id
		      AND b.booking_status = 'confirmed'
		      AND b.start_time < $4
		      AND COALESCE(b.end_time, '9999-12-31T23:59:59Z'::timestamptz) > $3
		  )
		ORDER BY sl.slot_number
		LIMIT 1
		FOR UPDATE OF sl`

	var slot db.ParkingSlot
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(
		&slot.ID, &slot.ParkingID, &slot.SlotNumber, &slot.VehicleType, &slot.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNoAvailability
		}
		return nil, mapPQError(fmt.Errorf("find free slot: %w", err))
	}
	return &slot, nil
}

func (t *ledgerTx) InsertBooking(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings
		  (id, user_id, parking_id, slot_id, vehicle_type, start_time, end_time, hourly_rate, total_amount, booking_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`
	err := t.tx.QueryRowContext(ctx, query,
		b.ID, b.UserID, b.ParkingID, b.SlotID, b.VehicleType,
		b.StartTime, b.EndTime, b.HourlyRate, b.TotalAmount, b.Status,
	).Scan(&b.CreatedAt)
	if err != nil {
		return mapPQError(fmt.Errorf("insert booking: %w", err))
	}
	return nil
}

// GetBookingForUpdate locks the booking row so a close-out and a cancellation
// cannot interleave; whichever transaction locks first wins and the other
// observes the post-transition status.
func (t *ledgerTx) GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (*db.Booking, uuid.UUID, error) {
	query := `
		SELECT b.id, b.user_id, b.parking_id, b.slot_id, b.vehicle_type,
		       b.start_time, b.end_time, b.hourly_rate, b.total_amount,
		       b.booking_status, b.cancelled_by, b.created_at,
		       ps.owner_id
		FROM bookings b
		JOIN parking_spaces ps ON b.parking_id = ps.id
		WHERE b.id = $1
		FOR UPDATE OF b`

	var (
		b           db.Booking
		endTime     sql.NullTime
		totalAmount sql.NullFloat64
		cancelledBy sql.NullString
		ownerID     uuid.UUID
	)
	err := t.tx.QueryRowContext(ctx, query, bookingID).Scan(
		&b.ID, &b.UserID, &b.ParkingID, &b.SlotID, &b.VehicleType,
		&b.StartTime, &endTime, &b.HourlyRate, &totalAmount,
		&b.Status, &cancelledBy, &b.CreatedAt,
		&ownerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, uuid.Nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
		}
		return nil, uuid.Nil, mapPQError(fmt.Errorf("lock booking: %w", err))
	}
	if endTime.Valid {
		b.EndTime = &endTime.Time
	}
	if totalAmount.Valid {
		b.TotalAmount = &totalAmount.Float64
	}
	if cancelledBy.Valid {
		by := db.CancelledBy(cancelledBy.String)
		b.CancelledBy = &by
	}
	return &b, ownerID, nil
}

// CompleteBooking writes the close-out of an open-ended booking. Only
// end_time, total_amount and status move; start_time, slot_id and the
// snapshotted hourly_rate are never touched after creation.
func (t *ledgerTx) CompleteBooking(ctx context.Context, b *db.Booking) error {
	query := `
		UPDATE bookings
		SET end_time = $1, total_amount = $2, booking_status = $3
		WHERE id = $4`
	if _, err := t.tx.ExecContext(ctx, query, b.EndTime, b.TotalAmount, db.BookingCompleted, b.ID); err != nil {
		return mapPQError(fmt.Errorf("complete booking: %w", err))
	}
	return nil
}

func (t *ledgerTx) CancelBooking(ctx context.Context, bookingID uuid.UUID, by db.CancelledBy) error {
	query := `
		UPDATE bookings
		SET booking_status = $1, cancelled_by = $2
		WHERE id = $3`
	if _, err := t.tx.ExecContext(ctx, query, db.BookingCancelled, by, bookingID); err != nil {
		return mapPQError(fmt.Errorf("cancel booking: %w", err))
	}
	return nil
}

func (t *ledgerTx) Commit() error {
	return mapPQError(t.tx.Commit())
}

func (t *ledgerTx) Rollback() error {
	return t.tx.Rollback()
}

// compile-time check that the ledger satisfies the service port.
var _ ports.Ledger = (*Ledger)(nil)
