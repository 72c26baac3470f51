package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
)

// FreeSlotQuery narrows the slot search during allocation. End == nil means
// the booking is open-ended and occupies the slot indefinitely.
type FreeSlotQuery struct {
	ParkingID   uuid.UUID
	VehicleType db.VehicleType
	SlotID      *uuid.UUID
	Start       time.Time
	End         *time.Time
}

// Ledger is the unit-of-work boundary of the reservation ledger. Every
// multi-step booking operation runs inside one LedgerTx so that the locks
// taken by the individual steps hold until Commit or Rollback.
type Ledger interface {
	Begin(ctx context.Context) (LedgerTx, error)
}

// LedgerTx is one transaction against the ledger. The locking contract:
//
//   - LockSpace takes an exclusive lock on the space row, serializing all
//     allocations against that space: a concurrent allocator blocks until the
//     earlier transaction commits or rolls back, and its slot search then
//     observes every booking committed in the meantime. It also pins the rate
//     and active flag for the transaction.
//   - FindFreeSlot locks the returned slot row so it cannot be changed out
//     from under the booking before commit.
//   - GetBookingForUpdate takes an exclusive lock on the booking row, so a
//     close-out cannot race a cancellation.
//
// Implementations must fail with errors.ErrContention when a lock cannot be
// acquired within the configured wait limit.
type LedgerTx interface {
	LockSpace(ctx context.Context, parkingID uuid.UUID) (*db.ParkingSpace, error)
	FindFreeSlot(ctx context.Context, q FreeSlotQuery) (*db.ParkingSlot, error)
	InsertBooking(ctx context.Context, b *db.Booking) error

	// GetBookingForUpdate returns the booking and the owner of its space.
	GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (*db.Booking, uuid.UUID, error)
	CompleteBooking(ctx context.Context, b *db.Booking) error
	CancelBooking(ctx context.Context, bookingID uuid.UUID, by db.CancelledBy) error

	Commit() error
	Rollback() error
}
