package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/events"
	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/pod"
	"github.com/diewo77/haulage/internal/settlement"
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
	if err := db.AutoMigrate(&models.Driver{}, &models.FleetOwner{}, &models.Vehicle{}, &models.Trip{}, &models.TripLoad{}, &models.LedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixtures struct {
	driver     models.Driver
	owner      models.FleetOwner
	selfTruck  models.Vehicle
	fleetTruck models.Vehicle
}

func seedDirectory(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()
	dir := NewDirectoryService(db)
	ctx := context.Background()
	var f fixtures
	var err error
	if f.driver, err = dir.CreateDriver(ctx, models.Driver{Name: "Ravi"}); err != nil {
		t.Fatalf("driver: %v", err)
	}
	if f.owner, err = dir.CreateFleetOwner(ctx, models.FleetOwner{Name: "Sharma Transport"}); err != nil {
		t.Fatalf("fleet owner: %v", err)
	}
	if f.selfTruck, err = dir.CreateVehicle(ctx, models.Vehicle{Number: "mh12ab1234"}); err != nil {
		t.Fatalf("self vehicle: %v", err)
	}
	if f.fleetTruck, err = dir.CreateVehicle(ctx, models.Vehicle{Number: "GJ01XY9999", Ownership: models.OwnershipFleet, FleetOwnerID: &f.owner.ID}); err != nil {
		t.Fatalf("fleet vehicle: %v", err)
	}
	return f
}

func book(t *testing.T, s *TripService, number string, vehicle uint, driver *uint, day int) models.Trip {
	t.Helper()
	trip, err := s.Create(context.Background(), api.TripBooking{
		TripNumber:    number,
		ScheduledDate: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		VehicleID:     vehicle,
		DriverID:      driver,
		Loads:         []api.Load{{ClientName: "Acme Cement", Origin: "Pune", Destination: "Surat"}},
	})
	if err != nil {
		t.Fatalf("book %s: %v", number, err)
	}
	return trip
}

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestTripCreateTakesOwnershipFromVehicle(t *testing.T) {
	db := setupTestDB(t)
	f := seedDirectory(t, db)
	s := NewTripService(db, nil)

	if f.selfTruck.Number != "MH12AB1234" {
		t.Fatalf("vehicle number not normalised: %q", f.selfTruck.Number)
	}
	fleet := book(t, s, "F-1", f.fleetTruck.ID, &f.driver.ID, 1)
	if !fleet.IsFleet() || fleet.FleetOwnerID == nil || *fleet.FleetOwnerID != f.owner.ID {
		t.Fatalf("fleet trip not linked to owner: %#v", fleet)
	}
	if fleet.PodStatus != string(pod.StageStarted) || len(fleet.Loads) != 1 || fleet.Vehicle.Number != "GJ01XY9999" {
		t.Fatalf("unexpected trip %#v", fleet)
	}
	own := book(t, s, "S-1", f.selfTruck.ID, &f.driver.ID, 2)
	if own.IsFleet() || own.FleetOwnerID != nil {
		t.Fatalf("self trip must not have a fleet owner: %#v", own)
	}

	_, err := s.Create(context.Background(), api.TripBooking{TripNumber: "X", VehicleID: 999, ScheduledDate: time.Now()})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown vehicle, got %v", err)
	}
	if _, err := s.Create(context.Background(), api.TripBooking{VehicleID: f.selfTruck.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing fields, got %v", err)
	}

	list, total, err := s.List(context.Background(), TripFilter{FleetOwnerID: f.owner.ID})
	if err != nil || total != 1 || len(list) != 1 || list[0].TripNumber != "F-1" {
		t.Fatalf("fleet filter: total=%d list=%v err=%v", total, list, err)
	}
}

func TestAppendAndDeleteEntryRenumbers(t *testing.T) {
	db := setupTestDB(t)
	f := seedDirectory(t, db)
	s := NewTripService(db, nil)
	ctx := context.Background()
	trip := book(t, s, "S-1", f.selfTruck.ID, &f.driver.ID, 1)

	for i, reason := range []string{"diesel", "toll", "food"} {
		e, err := s.AppendEntry(ctx, trip.ID, models.CategoryExpense, api.LedgerEntry{Amount: amount("10"), Reason: reason})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if e.Position != i {
			t.Fatalf("position = %d, want %d", e.Position, i)
		}
	}
	if err := s.DeleteEntry(ctx, trip.ID, models.CategoryExpense, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.Get(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	exp := got.EntriesFor(models.CategoryExpense)
	if len(exp) != 2 || exp[0].Reason != "diesel" || exp[1].Reason != "food" || exp[1].Position != 1 {
		t.Fatalf("unexpected entries after delete: %#v", exp)
	}

	tests := []struct {
		name     string
		trip     uint
		category string
		index    int
		want     error
	}{
		{"index past end", trip.ID, models.CategoryExpense, 2, ErrInvalidIndex},
		{"negative index", trip.ID, models.CategoryExpense, -1, ErrInvalidIndex},
		{"empty category", trip.ID, models.CategoryAdvance, 0, ErrInvalidIndex},
		{"unknown category", trip.ID, "fuel", 0, ErrInvalidInput},
		{"unknown trip", 999, models.CategoryExpense, 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.DeleteEntry(ctx, tt.trip, tt.category, tt.index); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if _, err := s.AppendEntry(ctx, trip.ID, models.CategoryAdvance, api.LedgerEntry{Amount: amount("-5")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected negative amount rejection, got %v", err)
	}
}

func TestSettleDriverTrips(t *testing.T) {
	db := setupTestDB(t)
	f := seedDirectory(t, db)
	s := NewTripService(db, nil)
	ctx := context.Background()
	t1 := book(t, s, "S-1", f.selfTruck.ID, &f.driver.ID, 1)
	t2 := book(t, s, "S-2", f.selfTruck.ID, &f.driver.ID, 2)
	add := func(trip uint, cat, v string) {
		if _, err := s.AppendEntry(ctx, trip, cat, api.LedgerEntry{Amount: amount(v), Reason: cat}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	add(t1.ID, models.CategoryAdvance, "600")
	add(t1.ID, models.CategoryExpense, "100")
	add(t1.ID, models.CategoryExpense, "50")
	add(t2.ID, models.CategoryAdvance, "400")
	add(t2.ID, models.CategoryExpense, "150")

	req := api.SettlementRequest{
		DriverID:        &f.driver.ID,
		TripIDs:         []uint{t2.ID, t1.ID},
		OldKm:           decimal.NewFromInt(1000),
		NewKm:           decimal.NewFromInt(1500),
		PerKmRate:       decimal.RequireFromString("19.5"),
		PreviousBalance: decimal.NewFromInt(-200),
	}
	out, err := s.Settle(ctx, req)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !out.Result.Due.Equal(decimal.NewFromInt(8850)) || out.Result.Direction != settlement.DirectionPayToParty {
		t.Fatalf("due = %s dir = %s", out.Result.Due, out.Result.Direction)
	}
	if out.Party.ID != f.driver.ID || out.Party.Ownership != settlement.OwnershipSelf {
		t.Fatalf("party = %#v", out.Party)
	}
	// statement follows the requested trip order
	if first := out.Statement.Lines.Advances[0]; first.TripNumber != "S-2" {
		t.Fatalf("first advance row from %s", first.TripNumber)
	}

	other, err := NewDirectoryService(db).CreateDriver(ctx, models.Driver{Name: "Someone Else"})
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	req.DriverID = &other.ID
	if _, err := s.Settle(ctx, req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for foreign trips, got %v", err)
	}

	req.DriverID = &f.driver.ID
	req.TripIDs = []uint{t1.ID, t2.ID, t1.ID}
	if _, err := s.Settle(ctx, req); !errors.Is(err, settlement.ErrDuplicateTrip) {
		t.Fatalf("expected ErrDuplicateTrip, got %v", err)
	}

	req.TripIDs = []uint{t2.ID, t1.ID}
	req.NewKm = req.OldKm
	if _, err := s.Settle(ctx, req); !errors.Is(err, settlement.ErrInvalidOdometer) {
		t.Fatalf("expected ErrInvalidOdometer, got %v", err)
	}
	req.TripIDs = []uint{t1.ID, 999}
	if _, err := s.Settle(ctx, req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown trip, got %v", err)
	}
}

func TestPodProgress(t *testing.T) {
	db := setupTestDB(t)
	f := seedDirectory(t, db)
	rec := &events.Recorder{}
	s := NewTripService(db, rec)
	ctx := context.Background()
	trip := book(t, s, "F-1", f.fleetTruck.ID, nil, 1)

	if _, err := s.UpdateTripPodStatus(ctx, trip.ID, pod.StagePodReceived); !errors.Is(err, pod.ErrInvalidTransition) {
		t.Fatalf("expected skip to be rejected, got %v", err)
	}
	want := []pod.Stage{pod.StageComplete, pod.StagePodReceived, pod.StagePodSubmitted, pod.StageSettled}
	for _, w := range want {
		got, err := s.AdvancePod(ctx, trip.ID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if got != w {
			t.Fatalf("advanced to %s, want %s", got, w)
		}
	}
	if _, err := s.AdvancePod(ctx, trip.ID); !errors.Is(err, pod.ErrFinalStage) {
		t.Fatalf("expected ErrFinalStage, got %v", err)
	}
	stored, err := s.Get(ctx, trip.ID)
	if err != nil || stored.PodStatus != string(pod.StageSettled) {
		t.Fatalf("stored status = %q err=%v", stored.PodStatus, err)
	}
	if len(rec.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(rec.Events))
	}
	if _, err := s.AdvancePod(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTripsForPartyAndByIDs(t *testing.T) {
	db := setupTestDB(t)
	f := seedDirectory(t, db)
	s := NewTripService(db, nil)
	ctx := context.Background()
	a := book(t, s, "S-1", f.selfTruck.ID, &f.driver.ID, 5)
	b := book(t, s, "S-2", f.selfTruck.ID, &f.driver.ID, 1)
	book(t, s, "F-1", f.fleetTruck.ID, nil, 3)

	trips, err := s.TripsForDriver(ctx, f.driver.ID)
	if err != nil {
		t.Fatalf("trips: %v", err)
	}
	if len(trips) != 2 || trips[0].TripNumber != "S-2" {
		t.Fatalf("expected driver trips oldest first, got %#v", trips)
	}
	fleet, err := s.TripsForFleetOwner(ctx, f.owner.ID)
	if err != nil || len(fleet) != 1 || fleet[0].Ownership != models.OwnershipFleet {
		t.Fatalf("fleet trips = %#v err=%v", fleet, err)
	}

	loaded, err := s.TripsByIDs(ctx, []uint{a.ID, b.ID})
	if err != nil || loaded[0].ID != a.ID || loaded[1].ID != b.ID {
		t.Fatalf("TripsByIDs order: %v err=%v", loaded, err)
	}
}
