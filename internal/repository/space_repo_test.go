package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
)

func intPtr(v int) *int { return &v }

func testTime() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func TestCreateSpace_NumbersSlotsAcrossCategories(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	sp := &db.ParkingSpace{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		PlaceName:       "Central Garage",
		Address:         "123 Main St",
		PricePerHourCar: 10, TotalSlotsCar: 2,
		PricePerHourBike: 2, TotalSlotsBike: 1,
		PricePerHourOther: 5, TotalSlotsOther: 0,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO parking_spaces").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(testTime(), testTime()))
	// car slots take numbers 1 and 2
	mock.ExpectExec("INSERT INTO parking_slots").
		WithArgs(sp.ID, db.VehicleCar, sqlmock.AnyArg(), 1, sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	// the bike slot continues the sequence at 3; no batch for zero other slots
	mock.ExpectExec("INSERT INTO parking_slots").
		WithArgs(sp.ID, db.VehicleBike, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewSpaceRepository(database).CreateSpace(context.Background(), sp))
	assert.True(t, sp.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSpace(t *testing.T) {
	parkingID := uuid.New()
	ownerID := uuid.New()

	lockRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "owner_id", "total_slots_car", "total_slots_bike", "total_slots_other"}).
			AddRow(parkingID, ownerID, 2, 1, 0)
	}

	t.Run("grow appends after the current max number", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM parking_spaces WHERE id = (.+) FOR UPDATE").
			WithArgs(parkingID).
			WillReturnRows(lockRows())
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(slot_number\), 0\) FROM parking_slots`).
			WithArgs(parkingID).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
		mock.ExpectExec("INSERT INTO parking_slots").
			WithArgs(parkingID, db.VehicleCar, sqlmock.AnyArg(), 4, sqlmock.AnyArg(), 5).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("UPDATE parking_spaces SET total_slots_car = (.+), updated_at = NOW").
			WithArgs(4, parkingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewSpaceRepository(database).UpdateSpace(context.Background(), parkingID, ownerID,
			&entities.SpaceUpdate{TotalSlotsCar: intPtr(4)})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("shrink is ignored", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM parking_spaces WHERE id = (.+) FOR UPDATE").
			WithArgs(parkingID).
			WillReturnRows(lockRows())
		// no slot inserts, no column update: the request commits as a no-op
		mock.ExpectCommit()

		err = NewSpaceRepository(database).UpdateSpace(context.Background(), parkingID, ownerID,
			&entities.SpaceUpdate{TotalSlotsCar: intPtr(1)})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("price change alone touches no slots", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		newRate := 12.5
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM parking_spaces WHERE id = (.+) FOR UPDATE").
			WithArgs(parkingID).
			WillReturnRows(lockRows())
		mock.ExpectExec("UPDATE parking_spaces SET price_per_hour_car = (.+), updated_at = NOW").
			WithArgs(newRate, parkingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewSpaceRepository(database).UpdateSpace(context.Background(), parkingID, ownerID,
			&entities.SpaceUpdate{PricePerHourCar: &newRate})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong owner", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM parking_spaces WHERE id = (.+) FOR UPDATE").
			WithArgs(parkingID).
			WillReturnRows(lockRows())
		mock.ExpectRollback()

		err = NewSpaceRepository(database).UpdateSpace(context.Background(), parkingID, uuid.New(),
			&entities.SpaceUpdate{TotalSlotsCar: intPtr(4)})
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing space", func(t *testing.T) {
		database, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer database.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM parking_spaces WHERE id = (.+) FOR UPDATE").
			WithArgs(parkingID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err = NewSpaceRepository(database).UpdateSpace(context.Background(), parkingID, ownerID,
			&entities.SpaceUpdate{TotalSlotsCar: intPtr(4)})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestDeleteSpace_CancelsConfirmedBookingsFirst(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	parkingID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT owner_id FROM parking_spaces WHERE id = (.+) FOR UPDATE").
		WithArgs(parkingID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
	mock.ExpectExec("UPDATE bookings SET booking_status").
		WithArgs(db.BookingCancelled, parkingID, db.BookingConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM parking_spaces WHERE id").
		WithArgs(parkingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewSpaceRepository(database).DeleteSpace(context.Background(), parkingID, ownerID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSpace_WrongOwner(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	parkingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT owner_id FROM parking_spaces WHERE id = (.+) FOR UPDATE").
		WithArgs(parkingID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(uuid.New()))
	mock.ExpectRollback()

	err = NewSpaceRepository(database).DeleteSpace(context.Background(), parkingID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}
