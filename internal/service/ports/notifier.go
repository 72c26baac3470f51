package ports

import "parkease/internal/db"

// Notifier delivers booking updates to the renter. Implementations are
// fire-and-forget: delivery failures must never affect the booking outcome.
type Notifier interface {
	BookingConfirmed(b *db.Booking)
	BookingCancelled(b *db.Booking)
}
