package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/events"
	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/pod"
	"github.com/diewo77/haulage/internal/settlement"

	"gorm.io/gorm"
)

type TripService struct {
	DB      *gorm.DB
	Events  events.Publisher
	tracker *pod.Tracker
}

func NewTripService(db *gorm.DB, pub events.Publisher) *TripService {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &TripService{DB: db, Events: pub}
	s.tracker = pod.NewTracker(s)
	return s
}

// TripFilter narrows List. Zero values mean no filter.
type TripFilter struct {
	DriverID     uint
	FleetOwnerID uint
	Limit        int
	Offset       int
}

func dbErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

func (s *TripService) withDetails(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Preload("Vehicle").
		Preload("Loads", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("category asc, position asc") })
}

// Create books a trip. Its ownership and fleet owner come from the vehicle.
func (s *TripService) Create(ctx context.Context, in api.TripBooking) (models.Trip, error) {
	in.TripNumber = strings.TrimSpace(in.TripNumber)
	if in.TripNumber == "" || in.VehicleID == 0 || in.ScheduledDate.IsZero() {
		return models.Trip{}, fmt.Errorf("%w: tripNumber, vehicleId and scheduledDate are required", ErrInvalidInput)
	}
	var v models.Vehicle
	if err := s.DB.WithContext(ctx).First(&v, in.VehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Trip{}, fmt.Errorf("%w: unknown vehicle %d", ErrInvalidInput, in.VehicleID)
		}
		return models.Trip{}, dbErr(err)
	}
	if in.DriverID != nil {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.Driver{}).Where("id = ?", *in.DriverID).Count(&n).Error; err != nil {
			return models.Trip{}, dbErr(err)
		}
		if n == 0 {
			return models.Trip{}, fmt.Errorf("%w: unknown driver %d", ErrInvalidInput, *in.DriverID)
		}
	}
	trip := models.Trip{
		TripNumber:    in.TripNumber,
		ScheduledDate: in.ScheduledDate,
		VehicleID:     v.ID,
		DriverID:      in.DriverID,
		Ownership:     v.Ownership,
		PodStatus:     string(pod.StageStarted),
		PodBalance:    in.PodBalance,
	}
	if v.Ownership == models.OwnershipFleet {
		trip.FleetOwnerID = v.FleetOwnerID
	}
	for i, l := range in.Loads {
		trip.Loads = append(trip.Loads, models.TripLoad{
			Position:    i,
			ClientName:  l.ClientName,
			Origin:      l.Origin,
			Destination: l.Destination,
			Material:    l.Material,
			Weight:      l.Weight,
			Freight:     l.Freight,
		})
	}
	if err := s.DB.WithContext(ctx).Omit("Vehicle").Create(&trip).Error; err != nil {
		return models.Trip{}, dbErr(err)
	}
	return s.Get(ctx, trip.ID)
}

func (s *TripService) Get(ctx context.Context, id uint) (models.Trip, error) {
	var t models.Trip
	if err := s.withDetails(ctx).First(&t, id).Error; err != nil {
		return models.Trip{}, dbErr(err)
	}
	return t, nil
}

func (s *TripService) List(ctx context.Context, f TripFilter) ([]models.Trip, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.DriverID != 0 {
			db = db.Where("driver_id = ?", f.DriverID)
		}
		if f.FleetOwnerID != 0 {
			db = db.Where("fleet_owner_id = ?", f.FleetOwnerID)
		}
		return db
	}
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Trip{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, dbErr(err)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var trips []models.Trip
	err := s.withDetails(ctx).Scopes(filter).
		Order("scheduled_date asc, id asc").Limit(limit).Offset(f.Offset).Find(&trips).Error
	if err != nil {
		return nil, 0, dbErr(err)
	}
	return trips, total, nil
}

// TripsForDriver returns every trip driven by the driver, oldest first.
func (s *TripService) TripsForDriver(ctx context.Context, driverID uint) ([]api.Trip, error) {
	return s.tripsWhere(ctx, "driver_id = ?", driverID)
}

// TripsForFleetOwner returns every trip on the owner's vehicles, oldest first.
func (s *TripService) TripsForFleetOwner(ctx context.Context, ownerID uint) ([]api.Trip, error) {
	return s.tripsWhere(ctx, "fleet_owner_id = ?", ownerID)
}

func (s *TripService) tripsWhere(ctx context.Context, cond string, id uint) ([]api.Trip, error) {
	var trips []models.Trip
	if err := s.withDetails(ctx).Where(cond, id).Order("scheduled_date asc, id asc").Find(&trips).Error; err != nil {
		return nil, dbErr(err)
	}
	out := make([]api.Trip, 0, len(trips))
	for _, t := range trips {
		out = append(out, api.FromTrip(t))
	}
	return out, nil
}

// TripsByIDs loads trips in the order the ids are given.
func (s *TripService) TripsByIDs(ctx context.Context, ids []uint) ([]models.Trip, error) {
	var found []models.Trip
	if err := s.withDetails(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, dbErr(err)
	}
	byID := make(map[uint]models.Trip, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]models.Trip, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: trip %d", ErrNotFound, id)
		}
		out = append(out, t)
	}
	return out, nil
}

// Settled is a computed settlement with the trips it covers.
type Settled struct {
	Party     Party
	Trips     []settlement.Trip
	Result    settlement.Result
	Statement settlement.Statement
}

// Settle loads the referenced trips and computes the settlement for the
// party named in the request. Every trip must belong to that party.
func (s *TripService) Settle(ctx context.Context, req api.SettlementRequest) (Settled, error) {
	if len(req.TripIDs) == 0 {
		return Settled{}, &settlement.ValidationError{Field: "tripIds", Err: settlement.ErrNoTrips}
	}
	seen := make(map[uint]bool, len(req.TripIDs))
	for _, id := range req.TripIDs {
		if seen[id] {
			return Settled{}, &settlement.ValidationError{Field: "tripIds", Err: settlement.ErrDuplicateTrip}
		}
		seen[id] = true
	}
	var party Party
	switch {
	case req.FleetOwnerID != nil && req.DriverID != nil:
		return Settled{}, fmt.Errorf("%w: driverId and fleetOwnerId are exclusive", ErrInvalidInput)
	case req.FleetOwnerID != nil:
		party = Party{Ownership: settlement.OwnershipFleet, ID: *req.FleetOwnerID}
	case req.DriverID != nil:
		party = Party{Ownership: settlement.OwnershipSelf, ID: *req.DriverID}
	default:
		return Settled{}, fmt.Errorf("%w: driverId or fleetOwnerId required", ErrInvalidInput)
	}
	stored, err := s.TripsByIDs(ctx, req.TripIDs)
	if err != nil {
		return Settled{}, err
	}
	trips := make([]settlement.Trip, 0, len(stored))
	for _, t := range stored {
		owner := t.DriverID
		if party.Ownership == settlement.OwnershipFleet {
			owner = t.FleetOwnerID
		}
		if owner == nil || *owner != party.ID {
			return Settled{}, fmt.Errorf("%w: trip %s does not belong to the selected party", ErrInvalidInput, t.TripNumber)
		}
		trips = append(trips, api.FromTrip(t).Settlement())
	}
	r, err := settlement.Compute(trips, req.Input())
	if err != nil {
		return Settled{}, err
	}
	if r.Ownership != party.Ownership {
		return Settled{}, fmt.Errorf("%w: %s trips cannot be settled with a %s party", ErrInvalidInput, r.Ownership, party.Ownership)
	}
	return Settled{Party: party, Trips: trips, Result: r, Statement: settlement.BuildStatement(trips, r)}, nil
}

// AppendEntry adds an advance or expense at the end of the trip's list.
func (s *TripService) AppendEntry(ctx context.Context, tripID uint, category string, in api.LedgerEntry) (models.LedgerEntry, error) {
	if !settlement.Category(category).Valid() {
		return models.LedgerEntry{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	if in.Amount.Valid && in.Amount.Decimal.IsNegative() {
		return models.LedgerEntry{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	var e models.LedgerEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Trip
		if err := tx.Select("id").First(&t, tripID).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.LedgerEntry{}).Where("trip_id = ? AND category = ?", tripID, category).Count(&n).Error; err != nil {
			return err
		}
		recorded := in.Date
		if recorded.IsZero() {
			recorded = time.Now().UTC()
		}
		e = models.LedgerEntry{
			TripID:     tripID,
			Category:   category,
			Position:   int(n),
			Amount:     in.Amount,
			Reason:     strings.TrimSpace(in.Reason),
			RecordedAt: recorded,
			Recipient:  in.Recipient,
			Reference:  in.Reference,
		}
		return tx.Create(&e).Error
	})
	if err != nil {
		return models.LedgerEntry{}, dbErr(err)
	}
	return e, nil
}

// DeleteEntry removes the entry at index within the category and renumbers
// the ones after it.
func (s *TripService) DeleteEntry(ctx context.Context, tripID uint, category string, index int) error {
	if !settlement.Category(category).Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Trip
		if err := tx.Select("id").First(&t, tripID).Error; err != nil {
			return err
		}
		var entries []models.LedgerEntry
		if err := tx.Where("trip_id = ? AND category = ?", tripID, category).Order("position asc").Find(&entries).Error; err != nil {
			return err
		}
		if index < 0 || index >= len(entries) {
			return ErrInvalidIndex
		}
		if err := tx.Delete(&models.LedgerEntry{}, entries[index].ID).Error; err != nil {
			return err
		}
		for i := index + 1; i < len(entries); i++ {
			if err := tx.Model(&models.LedgerEntry{}).Where("id = ?", entries[i].ID).Update("position", i-1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrInvalidIndex) {
		return err
	}
	if err != nil {
		return dbErr(err)
	}
	return nil
}

// UpdateTripPodStatus moves the trip to next, which must directly follow its
// current stage. It reports false when the trip changed stage concurrently.
func (s *TripService) UpdateTripPodStatus(ctx context.Context, tripID uint, next pod.Stage) (bool, error) {
	var t models.Trip
	if err := s.DB.WithContext(ctx).Select("id", "pod_status").First(&t, tripID).Error; err != nil {
		return false, dbErr(err)
	}
	current, err := pod.ParseStage(t.PodStatus)
	if err != nil {
		return false, err
	}
	if err := pod.ValidateTransition(current, next); err != nil {
		return false, err
	}
	res := s.DB.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ? AND pod_status = ?", tripID, t.PodStatus).
		Update("pod_status", string(next))
	if res.Error != nil {
		return false, dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	events.Emit(ctx, s.Events, events.TopicPodStatusChanged, events.PodStatusChanged{
		TripID: tripID, From: string(current), To: string(next), At: time.Now().UTC(),
	})
	return true, nil
}

// AdvancePod moves the trip one stage forward.
func (s *TripService) AdvancePod(ctx context.Context, tripID uint) (pod.Stage, error) {
	var t models.Trip
	if err := s.DB.WithContext(ctx).Select("id", "pod_status").First(&t, tripID).Error; err != nil {
		return "", dbErr(err)
	}
	current, err := pod.ParseStage(t.PodStatus)
	if err != nil {
		return "", err
	}
	return s.tracker.Advance(ctx, tripID, current)
}
