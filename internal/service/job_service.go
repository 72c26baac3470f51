package service

import (
	"context"
	"fmt"
	"log"

	"parkease/internal/db"
	"parkease/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// CompleteExpiredBookings marks confirmed bookings whose known end time has
// passed as completed. Their amount was computed when the end time became
// known, so only the status moves. Open-ended bookings are untouched; they
// stay confirmed until closed or cancelled.
func (s *JobService) CompleteExpiredBookings(ctx context.Context) error {
	ids, err := s.Repo.GetConfirmedBookingIDsPastEndTime(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to get bookings past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.Repo.UpdateBookingStatuses(ctx, ids, db.BookingCompleted); err != nil {
		return fmt.Errorf("cron job: failed to update booking statuses: %w", err)
	}
	log.Printf("Cron Job: marked %d bookings as completed", len(ids))
	return nil
}
