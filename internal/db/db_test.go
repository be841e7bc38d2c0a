package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/diewo77/haulage/internal/config"
	"github.com/diewo77/haulage/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSeedIdempotent(t *testing.T) {
	d := memoryDB(t)
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	counts := map[any]int64{&models.Driver{}: 1, &models.FleetOwner{}: 1, &models.Vehicle{}: 2, &models.Trip{}: 2, &models.LedgerEntry{}: 3}
	for m, want := range counts {
		var got int64
		d.Model(m).Count(&got)
		if got != want {
			t.Errorf("%T count = %d, want %d", m, got, want)
		}
	}
	var fleet models.Trip
	if err := d.Where("trip_number = ?", "T-0002").First(&fleet).Error; err != nil {
		t.Fatal(err)
	}
	if fleet.Ownership != models.OwnershipFleet || fleet.FleetOwnerID == nil || fleet.PodStatus != "started" {
		t.Fatalf("unexpected fleet trip %#v", fleet)
	}
}

func TestConnectSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "haulage.db")
	cfg.App.Seed = true

	d, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	var n int64
	d.Model(&models.Trip{}).Count(&n)
	if n != 2 {
		t.Fatalf("expected seeded trips, got %d", n)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"
	if _, err := Connect(cfg); err == nil {
		t.Fatal("expected error")
	}
}
