package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
)

// SpaceRepository owns parking spaces and their slot inventory. Slot numbers
// are sequential per space across all categories and are never reused, so
// (parking_id, slot_number) stays unique for the lifetime of the space.
type SpaceRepository struct {
	DB *sql.DB
}

func NewSpaceRepository(database *sql.DB) *SpaceRepository {
	return &SpaceRepository{DB: database}
}

// Per-category total and currently-free counts. The category literals are the
// fixed enumeration from the db package, never caller input.
const vehicleCountsSQL = `
	(SELECT COUNT(*) FROM parking_slots s
	 WHERE s.parking_id = ps.id AND s.is_active = true AND s.vehicle_type = 'car') AS total_slots_car,
	(SELECT COUNT(*) FROM parking_slots s
	 WHERE s.parking_id = ps.id AND s.is_active = true AND s.vehicle_type = 'car'
	 AND NOT EXISTS (
	   SELECT 1 FROM bookings b
	   WHERE b.slot_id = s.id
	     AND b.booking_status = 'confirmed'
	     AND b.start_time <= NOW()
	     AND (b.end_time IS NULL OR b.end_time > NOW())
	 )) AS available_slots_car,
	(SELECT COUNT(*) FROM parking_slots s
	 WHERE s.parking_id = ps.id AND s.is_active = true AND s.vehicle_type = 'bike') AS total_slots_bike,
	(SELECT COUNT(*) FROM parking_slots s
	 WHERE s.parking_id = ps.id AND s.is_active = true AND s.vehicle_type = 'bike'
	 AND NOT EXISTS (
	   SELECT 1 FROM bookings b
	   WHERE b.slot_id = s.id
	     AND b.booking_status = 'confirmed'
	     AND b.start_time <= NOW()
	     AND (b.end_time IS NULL OR b.end_time > NOW())
	 )) AS available_slots_bike,
	(SELECT COUNT(*) FROM parking_slots s
	 WHERE s.parking_id = ps.id AND s.is_active = true AND s.vehicle_type = 'other') AS total_slots_other,
	(SELECT COUNT(*) FROM parking_slots s
	 WHERE s.parking_id = ps.id AND s.is_active = true AND s.vehicle_type = 'other'
	 AND NOT EXISTS (
	   SELECT 1 FROM bookings b
	   WHERE b.slot_id = s.id
	     AND b.booking_status = 'confirmed'
	     AND b.start_time <= NOW()
	     AND (b.end_time IS NULL OR b.end_time > NOW())
	 )) AS available_slots_other`

const spaceSummaryColumns = `
	ps.id, ps.owner_id, ps.place_name, ps.address, ps.latitude, ps.longitude,
	ps.price_per_hour_car, ps.price_per_hour_bike, ps.price_per_hour_other,
	ps.description, ps.is_active, ps.created_at`

func scanSpaceSummary(scanner interface{ Scan(...interface{}) error }, withOwner bool) (*entities.SpaceSummary, error) {
	var (
		s           entities.SpaceSummary
		description sql.NullString
	)
	dest := []interface{}{
		&s.ID, &s.OwnerID, &s.PlaceName, &s.Address, &s.Latitude, &s.Longitude,
		&s.PricePerHourCar, &s.PricePerHourBike, &s.PricePerHourOther,
		&description, &s.IsActive, &s.CreatedAt,
	}
	if withOwner {
		dest = append(dest, &s.OwnerName, &s.OwnerPhone)
	}
	dest = append(dest,
		&s.Car.Total, &s.Car.Available,
		&s.Bike.Total, &s.Bike.Available,
		&s.Other.Total, &s.Other.Available,
	)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	s.Description = description.String
	return &s, nil
}

// CreateSpace inserts the space and generates its slot pools in one
// transaction: car slots first, then bike, then other, numbered from 1.
func (r *SpaceRepository) CreateSpace(ctx context.Context, sp *db.ParkingSpace) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO parking_spaces
		  (id, owner_id, place_name, address, latitude, longitude,
		   price_per_hour_car, total_slots_car,
		   price_per_hour_bike, total_slots_bike,
		   price_per_hour_other, total_slots_other,
		   description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true)
		RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		sp.ID, sp.OwnerID, sp.PlaceName, sp.Address, sp.Latitude, sp.Longitude,
		sp.PricePerHourCar, sp.TotalSlotsCar,
		sp.PricePerHourBike, sp.TotalSlotsBike,
		sp.PricePerHourOther, sp.TotalSlotsOther,
		sp.Description,
	).Scan(&sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert parking space: %w", err)
	}
	sp.IsActive = true

	nextNumber := 1
	for _, vt := range db.VehicleTypes {
		nextNumber, err = insertSlotBatch(ctx, tx, sp.ID, vt, sp.TotalSlots(vt), nextNumber)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// insertSlotBatch creates count slots of one category starting at startNumber
// and returns the next free number.
func insertSlotBatch(ctx context.Context, tx *sql.Tx, parkingID uuid.UUID, vt db.VehicleType, count, startNumber int) (int, error) {
	if count <= 0 {
		return startNumber, nil
	}

	var values []string
	args := []interface{}{parkingID, vt}
	idx := 3
	for i := 0; i < count; i++ {
		values = append(values, "($"+strconv.Itoa(idx)+", $1, $"+strconv.Itoa(idx+1)+", $2, true)")
		args = append(args, uuid.New(), startNumber+i)
		idx += 2
	}

	query := `INSERT INTO parking_slots (id, parking_id, slot_number, vehicle_type, is_active) VALUES ` +
		strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("insert %s slots: %w", vt, err)
	}
	return startNumber + count, nil
}

// growSlots appends additional slots of one category, numbered after the
// current maximum for the whole space so retired numbers are never reused.
func growSlots(ctx context.Context, tx *sql.Tx, parkingID uuid.UUID, vt db.VehicleType, additional int) error {
	if additional <= 0 {
		return nil
	}
	var maxNumber int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(slot_number), 0) FROM parking_slots WHERE parking_id = $1`, parkingID,
	).Scan(&maxNumber)
	if err != nil {
		return fmt.Errorf("query max slot number: %w", err)
	}
	_, err = insertSlotBatch(ctx, tx, parkingID, vt, additional, maxNumber+1)
	return err
}

// ListActive returns active spaces with per-category counts, excluding the
// caller's own spaces when a caller is known.
func (r *SpaceRepository) ListActive(ctx context.Context, excludeOwner *uuid.UUID) ([]entities.SpaceSummary, error) {
	query := `
		SELECT ` + spaceSummaryColumns + `, u.name, u.phone, ` + vehicleCountsSQL + `
		FROM parking_spaces ps
		JOIN users u ON ps.owner_id = u.id
		WHERE ps.is_active = true`
	args := []interface{}{}
	if excludeOwner != nil {
		query += ` AND ps.owner_id != $1`
		args = append(args, *excludeOwner)
	}
	query += ` ORDER BY ps.created_at DESC`

	return r.listSpaces(ctx, query, args, true)
}

// Search matches active spaces by place name or address.
func (r *SpaceRepository) Search(ctx context.Context, term string, excludeOwner *uuid.UUID) ([]entities.SpaceSummary, error) {
	query := `
		SELECT ` + spaceSummaryColumns + `, u.name, u.phone, ` + vehicleCountsSQL + `
		FROM parking_spaces ps
		JOIN users u ON ps.owner_id = u.id
		WHERE ps.is_active = true
		  AND (ps.place_name ILIKE $1 OR ps.address ILIKE $1)`
	args := []interface{}{"%" + term + "%"}
	if excludeOwner != nil {
		query += ` AND ps.owner_id != $2`
		args = append(args, *excludeOwner)
	}
	query += ` ORDER BY ps.created_at DESC`

	return r.listSpaces(ctx, query, args, true)
}

// ListByOwner returns all of an owner's spaces, active or not.
func (r *SpaceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entities.SpaceSummary, error) {
	query := `
		SELECT ` + spaceSummaryColumns + `, ` + vehicleCountsSQL + `
		FROM parking_spaces ps
		WHERE ps.owner_id = $1
		ORDER BY ps.created_at DESC`

	return r.listSpaces(ctx, query, []interface{}{ownerID}, false)
}

func (r *SpaceRepository) listSpaces(ctx context.Context, query string, args []interface{}, withOwner bool) ([]entities.SpaceSummary, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query parking spaces: %w", err)
	}
	defer rows.Close()

	var spaces []entities.SpaceSummary
	for rows.Next() {
		s, err := scanSpaceSummary(rows, withOwner)
		if err != nil {
			return nil, fmt.Errorf("scan parking space: %w", err)
		}
		spaces = append(spaces, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parking spaces: %w", err)
	}
	return spaces, nil
}

// GetDetail returns the space plus each slot's status for the window
// [windowStart, windowEnd-or-infinity). A slot is occupied iff some confirmed
// booking satisfies start < windowEnd AND coalesce(end, infinity) > windowStart.
func (r *SpaceRepository) GetDetail(ctx context.Context, parkingID uuid.UUID, windowStart time.Time, windowEnd *time.Time) (*entities.SpaceDetail, error) {
	query := `
		SELECT ` + spaceSummaryColumns + `, u.name, u.phone, ` + vehicleCountsSQL + `
		FROM parking_spaces ps
		JOIN users u ON ps.owner_id = u.id
		WHERE ps.id = $1`

	summary, err := scanSpaceSummary(r.DB.QueryRowContext(ctx, query, parkingID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("parking space %s: %w", parkingID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("query parking space: %w", err)
	}

	end := farFuture
	if windowEnd != nil {
		end = *windowEnd
	}

	slotsQuery := `
		SELECT sl.id, sl.slot_number, sl.vehicle_type, sl.is_active,
		       b.id IS NOT NULL AS occupied,
		       b.start_time, b.end_time
		FROM parking_slots sl
		LEFT JOIN LATERAL (
		  SELECT id, start_time, end_time
		  FROM bookings b
		  WHERE b.slot_id = sl.id
		    AND b.booking_status = 'confirmed'
		    AND b.start_time < $3
		    AND COALESCE(b.end_time, '9999-12-31T23:59:59Z'::timestamptz) > $2
		  ORDER BY b.start_time ASC
		  LIMIT 1
		) b ON true
		WHERE sl.parking_id = $1
		ORDER BY sl.vehicle_type, sl.slot_number`

	rows, err := r.DB.QueryContext(ctx, slotsQuery, parkingID, windowStart, end)
	if err != nil {
		return nil, fmt.Errorf("query slot statuses: %w", err)
	}
	defer rows.Close()

	detail := &entities.SpaceDetail{
		SpaceSummary: *summary,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
	}
	for rows.Next() {
		var (
			st       entities.SlotStatus
			occupied bool
			from, to sql.NullTime
		)
		if err := rows.Scan(&st.SlotID, &st.SlotNumber, &st.VehicleType, &st.IsActive, &occupied, &from, &to); err != nil {
			return nil, fmt.Errorf("scan slot status: %w", err)
		}
		st.Status = entities.SlotAvailable
		if occupied {
			st.Status = entities.SlotOccupied
			if from.Valid {
				st.OccupiedFrom = &from.Time
			}
			if to.Valid {
				st.OccupiedUntil = &to.Time
			}
		}
		detail.Slots = append(detail.Slots, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot statuses: %w", err)
	}
	return detail, nil
}

// UpdateSpace applies a partial update under an exclusive row lock. Slot
// counts can only grow; a requested decrease is ignored because shrinking
// would require renumbering slots that bookings may still reference.
func (r *SpaceRepository) UpdateSpace(ctx context.Context, parkingID, ownerID uuid.UUID, upd *entities.SpaceUpdate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current db.ParkingSpace
	err = tx.QueryRowContext(ctx, `
		SELECT id, owner_id, total_slots_car, total_slots_bike, total_slots_other
		FROM parking_spaces
		WHERE id = $1
		FOR UPDATE`, parkingID,
	).Scan(&current.ID, &current.OwnerID, &current.TotalSlotsCar, &current.TotalSlotsBike, &current.TotalSlotsOther)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parking space %s: %w", parkingID, apperrors.ErrNotFound)
		}
		return mapPQError(fmt.Errorf("lock parking space: %w", err))
	}
	if current.OwnerID != ownerID {
		return apperrors.ErrUnauthorized
	}

	var sets []string
	var args []interface{}
	idx := 1
	addSet := func(column string, value interface{}) {
		sets = append(sets, column+" = $"+strconv.Itoa(idx))
		args = append(args, value)
		idx++
	}
	if upd.PlaceName != nil {
		addSet("place_name", *upd.PlaceName)
	}
	if upd.Address != nil {
		addSet("address", *upd.Address)
	}
	if upd.Latitude != nil {
		addSet("latitude", *upd.Latitude)
	}
	if upd.Longitude != nil {
		addSet("longitude", *upd.Longitude)
	}
	if upd.PricePerHourCar != nil {
		addSet("price_per_hour_car", *upd.PricePerHourCar)
	}
	if upd.PricePerHourBike != nil {
		addSet("price_per_hour_bike", *upd.PricePerHourBike)
	}
	if upd.PricePerHourOther != nil {
		addSet("price_per_hour_other", *upd.PricePerHourOther)
	}
	if upd.Description != nil {
		addSet("description", *upd.Description)
	}
	if upd.IsActive != nil {
		addSet("is_active", *upd.IsActive)
	}

	resize := func(vt db.VehicleType, column string, requested *int, currentCount int) error {
		if requested == nil || *requested == currentCount {
			return nil
		}
		if *requested < currentCount {
			// Shrinking is not supported: removing slots would need proof that
			// no booking references them. The request is a no-op.
			log.Printf("ignoring slot count decrease for space %s (%s: %d -> %d)", parkingID, vt, currentCount, *requested)
			return nil
		}
		if err := growSlots(ctx, tx, parkingID, vt, *requested-currentCount); err != nil {
			return err
		}
		addSet(column, *requested)
		return nil
	}
	if err := resize(db.VehicleCar, "total_slots_car", upd.TotalSlotsCar, current.TotalSlotsCar); err != nil {
		return err
	}
	if err := resize(db.VehicleBike, "total_slots_bike", upd.TotalSlotsBike, current.TotalSlotsBike); err != nil {
		return err
	}
	if err := resize(db.VehicleOther, "total_slots_other", upd.TotalSlotsOther, current.TotalSlotsOther); err != nil {
		return err
	}

	if len(sets) > 0 {
		args = append(args, parkingID)
		query := `UPDATE parking_spaces SET ` + strings.Join(sets, ", ") +
			`, updated_at = NOW() WHERE id = $` + strconv.Itoa(idx)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update parking space: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteSpace force-cancels every non-terminal booking on the space and then
// removes it; slots and booking rows follow via FK cascade.
func (r *SpaceRepository) DeleteSpace(ctx context.Context, parkingID, ownerID uuid.UUID) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var currentOwner uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id FROM parking_spaces WHERE id = $1 FOR UPDATE`, parkingID,
	).Scan(&currentOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parking space %s: %w", parkingID, apperrors.ErrNotFound)
		}
		return mapPQError(fmt.Errorf("lock parking space: %w", err))
	}
	if currentOwner != ownerID {
		return apperrors.ErrUnauthorized
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings SET booking_status = $1
		WHERE parking_id = $2 AND booking_status = $3`,
		db.BookingCancelled, parkingID, db.BookingConfirmed)
	if err != nil {
		return fmt.Errorf("cancel bookings for space: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_spaces WHERE id = $1`, parkingID); err != nil {
		return fmt.Errorf("delete parking space: %w", err)
	}

	return tx.Commit()
}
