package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"parkease/internal/auth"
	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
	"parkease/internal/service"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}

	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid request"))
		return
	}
	if !req.VehicleType.Valid() {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid vehicle type"))
		return
	}
	if req.StartTime.IsZero() {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "start_time is required"))
		return
	}

	booking, err := h.Service.CreateBooking(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	slotNumber, err := h.Service.SlotNumber(r.Context(), booking.SlotID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entities.BookingResponse{
		Booking:    booking,
		SlotNumber: slotNumber,
		Pricing: entities.BookingPricing{
			HourlyRate:  booking.HourlyRate,
			TotalAmount: booking.TotalAmount,
			IsOpenEnded: booking.EndTime == nil,
		},
	})
}

func (h *BookingHandler) EndBooking(w http.ResponseWriter, r *http.Request) {
	user, bookingID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var req entities.EndBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EndTime.IsZero() {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "end_time is required"))
		return
	}

	booking, err := h.Service.EndBooking(r.Context(), bookingID, user.ID, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	user, bookingID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	booking, err := h.Service.CancelBooking(r.Context(), bookingID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) OwnerCancelBooking(w http.ResponseWriter, r *http.Request) {
	user, bookingID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	booking, err := h.Service.OwnerCancelBooking(r.Context(), bookingID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	user, bookingID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	detail, err := h.Service.GetBooking(r.Context(), bookingID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *BookingHandler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	bookings, err := h.Service.ListUserBookings(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) ListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	bookings, err := h.Service.ListOwnerBookings(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) callerAndID(w http.ResponseWriter, r *http.Request) (*db.User, uuid.UUID, bool) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return nil, uuid.Nil, false
	}
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid booking ID"))
		return nil, uuid.Nil, false
	}
	return user, bookingID, true
}
