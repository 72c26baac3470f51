package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parkease/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetConfirmedBookingIDsPastEndTime returns confirmed bookings whose known
// end time has already passed. Open-ended bookings never match.
func (r *JobRepository) GetConfirmedBookingIDsPastEndTime(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM bookings WHERE booking_status = $1 AND end_time IS NOT NULL AND end_time < NOW()`
	rows, err := r.DB.QueryContext(ctx, query, db.BookingConfirmed)
	if err != nil {
		return nil, fmt.Errorf("query bookings past end time: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking ids: %w", err)
	}
	return ids, nil
}

func (r *JobRepository) UpdateBookingStatuses(ctx context.Context, ids []uuid.UUID, status db.BookingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `UPDATE bookings SET booking_status = $1 WHERE id = ANY($2::uuid[])`
	if _, err := r.DB.ExecContext(ctx, query, status, pq.Array(raw)); err != nil {
		return fmt.Errorf("update booking statuses: %w", err)
	}
	return nil
}
