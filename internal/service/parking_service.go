package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
	"parkease/internal/entities"
	"parkease/internal/repository"
)

type ParkingService struct {
	spaces *repository.SpaceRepository
}

func NewParkingService(spaces *repository.SpaceRepository) *ParkingService {
	return &ParkingService{spaces: spaces}
}

func (s *ParkingService) CreateSpace(ctx context.Context, ownerID uuid.UUID, req *entities.SpaceRequest) (*db.ParkingSpace, error) {
	space := &db.ParkingSpace{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		PlaceName:         req.PlaceName,
		Address:           req.Address,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		PricePerHourCar:   req.PricePerHourCar,
		TotalSlotsCar:     req.TotalSlotsCar,
		PricePerHourBike:  req.PricePerHourBike,
		TotalSlotsBike:    req.TotalSlotsBike,
		PricePerHourOther: req.PricePerHourOther,
		TotalSlotsOther:   req.TotalSlotsOther,
		Description:       req.Description,
	}
	if err := s.spaces.CreateSpace(ctx, space); err != nil {
		return nil, err
	}
	return space, nil
}

// ListSpaces returns all active spaces, hiding the caller's own listings so
// owners are not offered their own driveway.
func (s *ParkingService) ListSpaces(ctx context.Context, callerID *uuid.UUID) ([]entities.SpaceSummary, error) {
	return s.spaces.ListActive(ctx, callerID)
}

func (s *ParkingService) SearchSpaces(ctx context.Context, term string, callerID *uuid.UUID) ([]entities.SpaceSummary, error) {
	return s.spaces.Search(ctx, term, callerID)
}

func (s *ParkingService) ListOwnSpaces(ctx context.Context, ownerID uuid.UUID) ([]entities.SpaceSummary, error) {
	return s.spaces.ListByOwner(ctx, ownerID)
}

// GetSpace returns the space with per-slot status for the requested window.
// With no window the check is "free right now and onward": [now, +inf).
func (s *ParkingService) GetSpace(ctx context.Context, parkingID uuid.UUID, windowStart *time.Time, windowEnd *time.Time) (*entities.SpaceDetail, error) {
	start := time.Now().UTC()
	if windowStart != nil {
		start = *windowStart
	}
	return s.spaces.GetDetail(ctx, parkingID, start, windowEnd)
}

func (s *ParkingService) UpdateSpace(ctx context.Context, parkingID, ownerID uuid.UUID, upd *entities.SpaceUpdate) (*entities.SpaceDetail, error) {
	if err := s.spaces.UpdateSpace(ctx, parkingID, ownerID, upd); err != nil {
		return nil, err
	}
	return s.GetSpace(ctx, parkingID, nil, nil)
}

func (s *ParkingService) DeleteSpace(ctx context.Context, parkingID, ownerID uuid.UUID) error {
	return s.spaces.DeleteSpace(ctx, parkingID, ownerID)
}
