package api

import (
	"encoding/json"
	"net/http"

	"parkease/internal/auth"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
	"parkease/internal/service"
)

type UserHandler struct {
	Service *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{Service: svc}
}

// RegisterUser creates the local profile for a verified identity. The token
// must verify, but no profile may exist yet; registering twice returns the
// existing profile.
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req entities.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid request"))
		return
	}
	if req.Name == "" {
		req.Name = ident.Name
	}
	if req.Email == "" {
		req.Email = ident.Email
	}
	if req.Phone == "" {
		req.Phone = ident.Phone
	}
	if req.Phone == "" {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "phone is required"))
		return
	}

	user, err := h.Service.RegisterUser(r.Context(), ident.AuthUID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	var upd entities.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "Invalid request"))
		return
	}
	updated, err := h.Service.UpdateUser(r.Context(), user.ID, &upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r)
	if !ok {
		http.Error(w, "Registration required", http.StatusUnauthorized)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
