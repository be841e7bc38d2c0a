package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/settlement"

	"gorm.io/gorm"
)

// DirectoryService manages the drivers, fleet owners and vehicles trips are
// booked against.
type DirectoryService struct{ DB *gorm.DB }

func NewDirectoryService(db *gorm.DB) *DirectoryService { return &DirectoryService{DB: db} }

func (s *DirectoryService) CreateDriver(ctx context.Context, d models.Driver) (models.Driver, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return models.Driver{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	d.ID = 0
	if err := s.DB.WithContext(ctx).Create(&d).Error; err != nil {
		return models.Driver{}, dbErr(err)
	}
	return d, nil
}

func (s *DirectoryService) Drivers(ctx context.Context) ([]models.Driver, error) {
	var out []models.Driver
	if err := s.DB.WithContext(ctx).Order("name asc, id asc").Find(&out).Error; err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}

func (s *DirectoryService) Driver(ctx context.Context, id uint) (models.Driver, error) {
	var d models.Driver
	if err := s.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		return models.Driver{}, dbErr(err)
	}
	return d, nil
}

func (s *DirectoryService) CreateFleetOwner(ctx context.Context, f models.FleetOwner) (models.FleetOwner, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return models.FleetOwner{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	f.ID = 0
	if err := s.DB.WithContext(ctx).Create(&f).Error; err != nil {
		return models.FleetOwner{}, dbErr(err)
	}
	return f, nil
}

func (s *DirectoryService) FleetOwners(ctx context.Context) ([]models.FleetOwner, error) {
	var out []models.FleetOwner
	if err := s.DB.WithContext(ctx).Order("name asc, id asc").Find(&out).Error; err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}

func (s *DirectoryService) FleetOwner(ctx context.Context, id uint) (models.FleetOwner, error) {
	var f models.FleetOwner
	if err := s.DB.WithContext(ctx).First(&f, id).Error; err != nil {
		return models.FleetOwner{}, dbErr(err)
	}
	return f, nil
}

// CreateVehicle registers a vehicle. Fleet vehicles need an existing fleet
// owner; self vehicles must not name one.
func (s *DirectoryService) CreateVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	v.Number = strings.ToUpper(strings.TrimSpace(v.Number))
	if v.Number == "" {
		return models.Vehicle{}, fmt.Errorf("%w: number required", ErrInvalidInput)
	}
	if v.Ownership == "" {
		v.Ownership = models.OwnershipSelf
	}
	if !settlement.Ownership(v.Ownership).Valid() {
		return models.Vehicle{}, fmt.Errorf("%w: unknown ownership %q", ErrInvalidInput, v.Ownership)
	}
	switch v.Ownership {
	case models.OwnershipFleet:
		if v.FleetOwnerID == nil {
			return models.Vehicle{}, fmt.Errorf("%w: fleet vehicle needs a fleet owner", ErrInvalidInput)
		}
		if _, err := s.FleetOwner(ctx, *v.FleetOwnerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return models.Vehicle{}, fmt.Errorf("%w: unknown fleet owner %d", ErrInvalidInput, *v.FleetOwnerID)
			}
			return models.Vehicle{}, err
		}
	default:
		v.FleetOwnerID = nil
	}
	v.ID = 0
	if err := s.DB.WithContext(ctx).Omit("FleetOwner").Create(&v).Error; err != nil {
		return models.Vehicle{}, dbErr(err)
	}
	return v, nil
}

func (s *DirectoryService) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	var out []models.Vehicle
	if err := s.DB.WithContext(ctx).Order("number asc").Find(&out).Error; err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}
