package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease/internal/db"
)

func TestGetConfirmedBookingIDsPastEndTime(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	first, second := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT id FROM bookings WHERE booking_status = (.+) AND end_time IS NOT NULL AND end_time < NOW").
		WithArgs(db.BookingConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first).AddRow(second))

	ids, err := NewJobRepository(database).GetConfirmedBookingIDsPastEndTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatuses(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	repo := NewJobRepository(database)

	t.Run("empty id list runs no query", func(t *testing.T) {
		require.NoError(t, repo.UpdateBookingStatuses(context.Background(), nil, db.BookingCompleted))
	})

	t.Run("updates all ids in one statement", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		mock.ExpectExec(`UPDATE bookings SET booking_status = \$1 WHERE id = ANY\(\$2::uuid\[\]\)`).
			WithArgs(db.BookingCompleted, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.UpdateBookingStatuses(context.Background(), ids, db.BookingCompleted))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
