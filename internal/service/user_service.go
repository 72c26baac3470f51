package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
	"parkease/internal/repository"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// RegisterUser creates the local row for a verified external identity, or
// returns the existing one so registration is idempotent per identity.
func (s *UserService) RegisterUser(ctx context.Context, authUID string, req *entities.UserRequest) (*db.User, error) {
	existing, err := s.users.GetByAuthUID(ctx, authUID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user := &db.User{
		ID:      uuid.New(),
		AuthUID: authUID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, upd *entities.UserUpdate) (*db.User, error) {
	return s.users.UpdateUser(ctx, id, upd)
}

// DeleteUser removes the account with its spaces and bookings; active
// bookings are cancelled before anything is deleted.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.DeleteUser(ctx, id)
}
