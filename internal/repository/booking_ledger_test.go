package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease/internal/db"
	apperrors "parkease/internal/errors"
	"parkease/internal/service/ports"
)

func beginLedgerTx(t *testing.T, mock sqlmock.Sqlmock, ledger *Ledger) ports.LedgerTx {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestLedgerBegin_SetsLockTimeout(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout = '3s'").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = NewLedger(database).Begin(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockSpace(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	parkingID := uuid.New()
	ownerID := uuid.New()
	tx := beginLedgerTx(t, mock, NewLedger(database))

	t.Run("locks the row exclusively", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "owner_id", "price_per_hour_car", "price_per_hour_bike", "price_per_hour_other", "is_active"}).
			AddRow(parkingID, ownerID, 10.0, 2.0, 5.0, true)
		// FOR UPDATE, not a share lock: allocators on one space serialize
		// here before the slot search takes its snapshot.
		mock.ExpectQuery(`SELECT (.+) FROM parking_spaces WHERE id = (.+) FOR UPDATE$`).
			WithArgs(parkingID).
			WillReturnRows(rows)

		sp, err := tx.LockSpace(context.Background(), parkingID)
		require.NoError(t, err)
		assert.Equal(t, 10.0, sp.HourlyRate(db.VehicleCar))
		assert.True(t, sp.IsActive)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM parking_spaces").
			WithArgs(parkingID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := tx.LockSpace(context.Background(), parkingID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFreeSlot(t *testing.T) {
	parkingID := uuid.New()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	t.Run("locks the lowest free slot", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()
		tx := beginLedgerTx(t, mock, NewLedger(database))

		slotID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "parking_id", "slot_number", "vehicle_type", "is_active"}).
			AddRow(slotID, parkingID, 1, "car", true)
		mock.ExpectQuery("SELECT (.+) FROM parking_slots sl (.+) FOR UPDATE OF sl").
			WithArgs(parkingID, db.VehicleCar, start, end).
			WillReturnRows(rows)

		slot, err := tx.FindFreeSlot(context.Background(), ports.FreeSlotQuery{
			ParkingID: parkingID, VehicleType: db.VehicleCar, Start: start, End: &end,
		})
		require.NoError(t, err)
		assert.Equal(t, slotID, slot.ID)
		assert.Equal(t, 1, slot.SlotNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open-ended window uses the far-future sentinel", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()
		tx := beginLedgerTx(t, mock, NewLedger(database))

		mock.ExpectQuery("SELECT (.+) FROM parking_slots sl").
			WithArgs(parkingID, db.VehicleCar, start, farFuture).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err = tx.FindFreeSlot(context.Background(), ports.FreeSlotQuery{
			ParkingID: parkingID, VehicleType: db.VehicleCar, Start: start,
		})
		assert.ErrorIs(t, err, apperrors.ErrNoAvailability)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pins a specific slot", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()
		tx := beginLedgerTx(t, mock, NewLedger(database))

		slotID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "parking_id", "slot_number", "vehicle_type", "is_active"}).
			AddRow(slotID, parkingID, 2, "car", true)
		mock.ExpectQuery(`AND sl\.id = \$5`).
			WithArgs(parkingID, db.VehicleCar, start, end, slotID).
			WillReturnRows(rows)

		slot, err := tx.FindFreeSlot(context.Background(), ports.FreeSlotQuery{
			ParkingID: parkingID, VehicleType: db.VehicleCar, SlotID: &slotID, Start: start, End: &end,
		})
		require.NoError(t, err)
		assert.Equal(t, slotID, slot.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock wait timeout maps to contention", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()
		tx := beginLedgerTx(t, mock, NewLedger(database))

		mock.ExpectQuery("SELECT (.+) FROM parking_slots sl").
			WillReturnError(&pq.Error{Code: "55P03"})

		_, err = tx.FindFreeSlot(context.Background(), ports.FreeSlotQuery{
			ParkingID: parkingID, VehicleType: db.VehicleCar, Start: start, End: &end,
		})
		assert.ErrorIs(t, err, apperrors.ErrContention)
	})
}

func TestGetBookingForUpdate(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	tx := beginLedgerTx(t, mock, NewLedger(database))

	bookingID := uuid.New()
	ownerID := uuid.New()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	columns := []string{
		"id", "user_id", "parking_id", "slot_id", "vehicle_type",
		"start_time", "end_time", "hourly_rate", "total_amount",
		"booking_status", "cancelled_by", "created_at", "owner_id",
	}

	t.Run("open-ended booking has nil end and amount", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).AddRow(
			bookingID, uuid.New(), uuid.New(), uuid.New(), "car",
			start, nil, 10.0, nil,
			"confirmed", nil, start, ownerID,
		)
		mock.ExpectQuery("FROM bookings b JOIN parking_spaces ps (.+) FOR UPDATE OF b").
			WithArgs(bookingID).
			WillReturnRows(rows)

		b, owner, err := tx.GetBookingForUpdate(context.Background(), bookingID)
		require.NoError(t, err)
		assert.Equal(t, ownerID, owner)
		assert.Nil(t, b.EndTime)
		assert.Nil(t, b.TotalAmount)
		assert.Nil(t, b.CancelledBy)
		assert.Equal(t, db.BookingConfirmed, b.Status)
	})

	t.Run("cancelled booking carries cancelled_by", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).AddRow(
			bookingID, uuid.New(), uuid.New(), uuid.New(), "car",
			start, start.Add(time.Hour), 10.0, 10.0,
			"cancelled", "owner", start, ownerID,
		)
		mock.ExpectQuery("FROM bookings b JOIN parking_spaces ps").
			WithArgs(bookingID).
			WillReturnRows(rows)

		b, _, err := tx.GetBookingForUpdate(context.Background(), bookingID)
		require.NoError(t, err)
		require.NotNil(t, b.CancelledBy)
		assert.Equal(t, db.CancelledByOwner, *b.CancelledBy)
	})

	t.Run("missing booking", func(t *testing.T) {
		mock.ExpectQuery("FROM bookings b JOIN parking_spaces ps").
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(columns))

		_, _, err := tx.GetBookingForUpdate(context.Background(), bookingID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerCommit_MapsContention(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	tx := beginLedgerTx(t, mock, NewLedger(database))

	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	err = tx.Commit()
	assert.ErrorIs(t, err, apperrors.ErrContention)
	assert.NoError(t, mock.ExpectationsWereMet())
}
