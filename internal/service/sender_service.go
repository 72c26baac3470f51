package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"parkease/internal/db"
	"parkease/internal/repository"
	"parkease/internal/service/ports"
)

// SenderService delivers booking emails and SMS through SendGrid and Twilio.
// Sends happen on a goroutine; a delivery failure is logged and dropped, it
// never bubbles into the booking transaction's outcome.
type SenderService struct {
	users *repository.UserRepository
}

func NewSenderService(users *repository.UserRepository) *SenderService {
	return &SenderService{users: users}
}

var _ ports.Notifier = (*SenderService)(nil)

func (s *SenderService) BookingConfirmed(b *db.Booking) {
	s.send(b, "confirmed")
}

func (s *SenderService) BookingCancelled(b *db.Booking) {
	s.send(b, "cancelled")
}

func (s *SenderService) send(b *db.Booking, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.users.GetByID(ctx, b.UserID)
		if err != nil {
			log.Printf("notify: could not load user for booking %s: %v", b.ID, err)
			return
		}

		start := b.StartTime.Format("02 Jan 2006 15:04 MST")
		endLine := "open-ended"
		if b.EndTime != nil {
			endLine = b.EndTime.Format("02 Jan 2006 15:04 MST")
		}

		subject := fmt.Sprintf("Your ParkEase booking is %s", status)
		body := fmt.Sprintf(
			"Hello %s,\n\nYour parking booking is %s.\n\n"+
				"Booking Details:\n"+
				"Booking ID: %s\n"+
				"Vehicle type: %s\n"+
				"Check-in: %s\n"+
				"Check-out: %s\n\n"+
				"Thank you for choosing ParkEase.",
			user.Name, status, b.ID, b.VehicleType, start, endLine,
		)

		if user.Email != "" {
			if err := SendEmailWithSendGrid(user.Email, user.Name, subject, body); err != nil {
				log.Printf("notify: email for booking %s failed: %v", b.ID, err)
			}
		}
		if user.Phone != "" {
			sms := fmt.Sprintf("ParkEase: booking %s is %s. Check-in: %s.", b.ID, status, b.StartTime.Format("02/01 15:04"))
			if err := SendSMS(user.Phone, sms); err != nil {
				log.Printf("notify: SMS for booking %s failed: %v", b.ID, err)
			}
		}
	}()
}
