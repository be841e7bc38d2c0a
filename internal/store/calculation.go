// Package store keeps calculation snapshots in the application database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/services"
	"github.com/google/uuid"

	"gorm.io/gorm"
)

type GormCalculationStore struct{ DB *gorm.DB }

func NewGormCalculationStore(db *gorm.DB) *GormCalculationStore {
	return &GormCalculationStore{DB: db}
}

var _ services.CalculationStore = (*GormCalculationStore)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

func (s *GormCalculationStore) list(ctx context.Context, cond string, id uint) ([]api.Calculation, error) {
	var rows []models.Calculation
	if err := s.DB.WithContext(ctx).Where(cond, id).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]api.Calculation, 0, len(rows))
	for _, c := range rows {
		out = append(out, api.FromCalculation(c))
	}
	return out, nil
}

func (s *GormCalculationStore) GetCalculationsForDriver(ctx context.Context, driverID uint) ([]api.Calculation, error) {
	return s.list(ctx, "driver_id = ? AND ownership = 'self'", driverID)
}

func (s *GormCalculationStore) GetCalculationsForFleetOwner(ctx context.Context, ownerID uint) ([]api.Calculation, error) {
	return s.list(ctx, "fleet_owner_id = ? AND ownership = 'fleet'", ownerID)
}

func (s *GormCalculationStore) GetCalculation(ctx context.Context, id string) (api.Calculation, error) {
	var c models.Calculation
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return api.Calculation{}, notFound(err)
	}
	return api.FromCalculation(c), nil
}

func (s *GormCalculationStore) CreateCalculation(ctx context.Context, p api.CalculationPayload) (api.Calculation, error) {
	c := p.Model()
	c.ID = uuid.NewString()
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return api.Calculation{}, fmt.Errorf("create calculation: %w", err)
	}
	return api.FromCalculation(c), nil
}

// UpdateCalculation replaces every field of the stored record with the
// payload. Only the id and the creation time survive.
func (s *GormCalculationStore) UpdateCalculation(ctx context.Context, id string, p api.CalculationPayload) (api.Calculation, error) {
	var out models.Calculation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Calculation
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		out = p.Model()
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
		return tx.Save(&out).Error
	})
	if err != nil {
		return api.Calculation{}, notFound(err)
	}
	return api.FromCalculation(out), nil
}

func (s *GormCalculationStore) DeleteCalculation(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.Calculation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}
