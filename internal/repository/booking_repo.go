package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
)

// BookingRepository serves the read side of the ledger: lists and lookups.
// All writes go through the Ledger unit-of-work.
type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingDetailColumns = `
	b.id, b.parking_id, ps.place_name, ps.address, sl.slot_number,
	b.vehicle_type, b.start_time, b.end_time, b.hourly_rate, b.total_amount,
	b.booking_status, b.cancelled_by, b.created_at`

func scanBookingDetail(scanner interface{ Scan(...interface{}) error }) (*entities.BookingDetail, error) {
	var (
		d           entities.BookingDetail
		endTime     sql.NullTime
		totalAmount sql.NullFloat64
		cancelledBy sql.NullString
	)
	err := scanner.Scan(
		&d.ID, &d.ParkingID, &d.PlaceName, &d.Address, &d.SlotNumber,
		&d.VehicleType, &d.StartTime, &endTime, &d.HourlyRate, &totalAmount,
		&d.Status, &cancelledBy, &d.CreatedAt,
		&d.ContactName, &d.ContactPhone,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		d.EndTime = &endTime.Time
	}
	if totalAmount.Valid {
		d.TotalAmount = &totalAmount.Float64
	}
	if cancelledBy.Valid {
		by := db.CancelledBy(cancelledBy.String)
		d.CancelledBy = &by
	}
	return &d, nil
}

// GetByID returns a booking visible to the caller: either the renter who made
// it or the owner of the space it sits on.
func (r *BookingRepository) GetByID(ctx context.Context, bookingID, callerID uuid.UUID) (*entities.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `,
		       u_owner.name, u_owner.phone
		FROM bookings b
		JOIN parking_spaces ps ON b.parking_id = ps.id
		JOIN parking_slots sl ON b.slot_id = sl.id
		JOIN users u_owner ON ps.owner_id = u_owner.id
		WHERE b.id = $1 AND (b.user_id = $2 OR ps.owner_id = $2)`

	d, err := scanBookingDetail(r.DB.QueryRowContext(ctx, query, bookingID, callerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return d, nil
}

// ListByUser returns the renter's bookings with the space owner as contact.
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `,
		       u_owner.name, u_owner.phone
		FROM bookings b
		JOIN parking_spaces ps ON b.parking_id = ps.id
		JOIN parking_slots sl ON b.slot_id = sl.id
		JOIN users u_owner ON ps.owner_id = u_owner.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`

	return r.listBookings(ctx, query, userID)
}

// ListByOwner returns bookings on the owner's spaces with the renter as contact.
func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entities.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `,
		       u.name, u.phone
		FROM bookings b
		JOIN parking_spaces ps ON b.parking_id = ps.id
		JOIN parking_slots sl ON b.slot_id = sl.id
		JOIN users u ON b.user_id = u.id
		WHERE ps.owner_id = $1
		ORDER BY b.created_at DESC`

	return r.listBookings(ctx, query, ownerID)
}

func (r *BookingRepository) listBookings(ctx context.Context, query string, id uuid.UUID) ([]entities.BookingDetail, error) {
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var details []entities.BookingDetail
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return details, nil
}

// SlotNumber resolves the sequential number of a slot; responses include it so
// clients can show which bay the booking landed on.
func (r *BookingRepository) SlotNumber(ctx context.Context, slotID uuid.UUID) (int, error) {
	var number int
	err := r.DB.QueryRowContext(ctx, `SELECT slot_number FROM parking_slots WHERE id = $1`, slotID).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("slot %s: %w", slotID, apperrors.ErrNotFound)
		}
		return 0, fmt.Errorf("query slot number: %w", err)
	}
	return number, nil
}
