package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "parkease/internal/errors"
)

// farFuture is the sentinel used to treat open-ended intervals as unbounded
// in the half-open overlap predicate.
var farFuture = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// lockTimeout caps how long a ledger transaction waits on a row lock before
// failing with a retryable contention error instead of hanging.
const lockTimeout = "3s"

// Store bundles every repository over one database handle.
type Store struct {
	DB       *sql.DB
	Users    *UserRepository
	Spaces   *SpaceRepository
	Bookings *BookingRepository
	Jobs     *JobRepository
	Ledger   *Ledger
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:       db,
		Users:    NewUserRepository(db),
		Spaces:   NewSpaceRepository(db),
		Bookings: NewBookingRepository(db),
		Jobs:     NewJobRepository(db),
		Ledger:   NewLedger(db),
	}
}

// mapPQError rewrites lock-wait and serialization failures into the retryable
// contention error. Everything else passes through unchanged.
func mapPQError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", apperrors.ErrContention, err)
		}
	}
	return err
}
