package db

import (
	"errors"
	"time"

	"github.com/diewo77/haulage/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed inserts a small development data set. Running it again is a no-op.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		driver := models.Driver{Name: "Ravi Kumar", Phone: "9800000001", License: "MH1220190001234"}
		if err := firstOrCreate(tx, &driver, "name = ?", driver.Name); err != nil {
			return err
		}
		owner := models.FleetOwner{Name: "Sharma Transport", Phone: "9800000002"}
		if err := firstOrCreate(tx, &owner, "name = ?", owner.Name); err != nil {
			return err
		}
		selfTruck := models.Vehicle{Number: "MH12AB1234", Ownership: models.OwnershipSelf}
		if err := firstOrCreate(tx, &selfTruck, "number = ?", selfTruck.Number); err != nil {
			return err
		}
		fleetTruck := models.Vehicle{Number: "GJ01XY9999", Ownership: models.OwnershipFleet, FleetOwnerID: &owner.ID}
		if err := firstOrCreate(tx, &fleetTruck, "number = ?", fleetTruck.Number); err != nil {
			return err
		}

		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		trips := []models.Trip{
			{
				TripNumber: "T-0001", ScheduledDate: day, VehicleID: selfTruck.ID, DriverID: &driver.ID,
				Ownership: models.OwnershipSelf,
				Loads:     []models.TripLoad{{ClientName: "Acme Cement", Origin: "Pune", Destination: "Surat"}},
				Entries: []models.LedgerEntry{
					{Category: models.CategoryAdvance, Position: 0, Amount: money(600), Reason: "diesel advance", RecordedAt: day},
					{Category: models.CategoryExpense, Position: 0, Amount: money(300), Reason: "toll", RecordedAt: day},
				},
			},
			{
				TripNumber: "T-0002", ScheduledDate: day.AddDate(0, 0, 3), VehicleID: fleetTruck.ID, DriverID: &driver.ID,
				FleetOwnerID: &owner.ID, Ownership: models.OwnershipFleet, PodBalance: money(2500),
				Loads: []models.TripLoad{{ClientName: "Deccan Steel", Origin: "Nagpur", Destination: "Raipur"}},
				Entries: []models.LedgerEntry{
					{Category: models.CategoryAdvance, Position: 0, Amount: money(5000), Reason: "trip advance", RecordedAt: day},
				},
			},
		}
		for i := range trips {
			var existing models.Trip
			err := tx.Where("trip_number = ?", trips[i].TripNumber).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Omit("Vehicle").Create(&trips[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func firstOrCreate(tx *gorm.DB, dst any, query string, arg any) error {
	err := tx.Where(query, arg).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(dst).Error
	}
	return err
}

func money(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}
