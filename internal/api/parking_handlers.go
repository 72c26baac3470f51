package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"parkease/internal/auth"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
	"parkease/internal/service"
)

type ParkingHandler struct {
	Service *service.ParkingService
}

func NewParkingHandler(svc *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{Service: svc}
}

func (h *ParkingHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	var callerID *uuid.UUID
	if user, ok := auth.UserFrom(r); ok {
		callerID = &user.ID
	}
	spaces, err := h.Service.ListSpaces(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (h *ParkingHandler) SearchSpaces(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "q is required"))
		return
	}
	var callerID *uuid.UUID
	if user, ok := auth.UserFrom(r); ok {
		callerID = &user.ID
	}
	spaces, err := h.Service.SearchSpaces(r.Context(), term, callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (h *ParkingHandler) ListOwnSpaces(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	spaces, err := h.Service.ListOwnSpaces(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

// GetSpace returns the space detail with slot availability. Optional start
// and end query params (RFC 3339) choose the window; default is now onward.
func (h *ParkingHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	parkingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid parking ID"))
		return
	}

	var windowStart, windowEnd *time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid start time"))
			return
		}
		windowStart = &t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid end time"))
			return
		}
		windowEnd = &t
	}

	detail, err := h.Service.GetSpace(r.Context(), parkingID, windowStart, windowEnd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ParkingHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	var req entities.SpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid request"))
		return
	}
	if req.PlaceName == "" || req.Address == "" {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "place_name and address are required"))
		return
	}

	space, err := h.Service.CreateSpace(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, space)
}

func (h *ParkingHandler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	parkingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid parking ID"))
		return
	}
	var upd entities.SpaceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid request"))
		return
	}

	detail, err := h.Service.UpdateSpace(r.Context(), parkingID, user.ID, &upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ParkingHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	parkingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid parking ID"))
		return
	}
	if err := h.Service.DeleteSpace(r.Context(), parkingID, user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking space deleted"})
}
