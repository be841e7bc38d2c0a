package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/services"
	"github.com/shopspring/decimal"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Calculation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func driverPayload(driverID uint, due int64) api.CalculationPayload {
	return api.CalculationPayload{
		SettlementRequest: api.SettlementRequest{
			DriverID:  &driverID,
			TripIDs:   []uint{1, 2},
			OldKm:     decimal.NewFromInt(1000),
			NewKm:     decimal.NewFromInt(1500),
			PerKmRate: decimal.RequireFromString("19.5"),
		},
		Ownership: models.OwnershipSelf,
		TotalKm:   decimal.NewFromInt(500),
		KmValue:   decimal.NewFromInt(9750),
		Total:     decimal.NewFromInt(9850),
		Due:       decimal.NewFromInt(due),
		Direction: "pay_to_party",
	}
}

func TestCreateGetList(t *testing.T) {
	s := NewGormCalculationStore(setupTestDB(t))
	ctx := context.Background()

	c, err := s.CreateCalculation(ctx, driverPayload(7, 8850))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(c.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", c.ID)
	}
	got, err := s.GetCalculation(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Due.Equal(decimal.NewFromInt(8850)) || !got.PerKmRate.Equal(decimal.RequireFromString("19.5")) {
		t.Fatalf("unexpected values %#v", got)
	}
	if len(got.TripIDs) != 2 || got.TripIDs[1] != 2 {
		t.Fatalf("trip ids = %v", got.TripIDs)
	}

	if _, err := s.CreateCalculation(ctx, driverPayload(8, 10)); err != nil {
		t.Fatalf("create other: %v", err)
	}
	list, err := s.GetCalculationsForDriver(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Fatalf("expected only driver 7 calculation, got %#v", list)
	}
	fleet, err := s.GetCalculationsForFleetOwner(ctx, 7)
	if err != nil || len(fleet) != 0 {
		t.Fatalf("fleet list = %v %v", fleet, err)
	}
}

func TestUpdateReplacesWholesaleAndKeepsCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormCalculationStore(db)
	ctx := context.Background()

	c, err := s.CreateCalculation(ctx, driverPayload(7, 8850))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := db.Model(&models.Calculation{}).Where("id = ?", c.ID).Update("created_at", created).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	edit := driverPayload(7, -150)
	edit.TripIDs = []uint{3}
	edit.NextServiceKm = decimal.Zero
	edit.Direction = "pay_by_party"
	updated, err := s.UpdateCalculation(ctx, c.ID, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != c.ID {
		t.Fatalf("id changed: %s -> %s", c.ID, updated.ID)
	}
	got, err := s.GetCalculation(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Due.Equal(decimal.NewFromInt(-150)) || got.Direction != "pay_by_party" {
		t.Fatalf("not replaced: %#v", got)
	}
	if len(got.TripIDs) != 1 || got.TripIDs[0] != 3 {
		t.Fatalf("trip ids not replaced: %v", got.TripIDs)
	}
	if got.CreatedAt.Unix() != created.Unix() {
		t.Fatalf("created at changed: %v", got.CreatedAt)
	}
	var count int64
	db.Model(&models.Calculation{}).Count(&count)
	if count != 1 {
		t.Fatalf("edit must not create a second record, have %d", count)
	}
}

func TestNotFoundAndDelete(t *testing.T) {
	s := NewGormCalculationStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := s.GetCalculation(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateCalculation(ctx, "missing", driverPayload(1, 1)); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	c, err := s.CreateCalculation(ctx, driverPayload(1, 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteCalculation(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCalculation(ctx, c.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
