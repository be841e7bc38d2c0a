package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/events"
	"github.com/diewo77/haulage/internal/settlement"
)

// CalculationStore persists calculation snapshots. It is implemented by the
// database store and by the remote backend client.
type CalculationStore interface {
	GetCalculationsForDriver(ctx context.Context, driverID uint) ([]api.Calculation, error)
	GetCalculationsForFleetOwner(ctx context.Context, ownerID uint) ([]api.Calculation, error)
	GetCalculation(ctx context.Context, id string) (api.Calculation, error)
	CreateCalculation(ctx context.Context, p api.CalculationPayload) (api.Calculation, error)
	UpdateCalculation(ctx context.Context, id string, p api.CalculationPayload) (api.Calculation, error)
	DeleteCalculation(ctx context.Context, id string) error
}

// Party is the driver or fleet owner a calculation settles.
type Party struct {
	Ownership settlement.Ownership
	ID        uint
}

type SaveRequest struct {
	Party      Party
	Result     settlement.Result
	TripIDs    []uint
	IsEdit     bool
	ExistingID string
}

type CalculationService struct {
	Store  CalculationStore
	Events events.Publisher
}

func NewCalculationService(store CalculationStore, pub events.Publisher) *CalculationService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &CalculationService{Store: store, Events: pub}
}

// SaveOrUpdate submits the full snapshot of a computed result. On edit the
// existing record is replaced wholesale. A store failure is returned as is
// (wrapped in ErrStore); nothing is retried.
func (s *CalculationService) SaveOrUpdate(ctx context.Context, req SaveRequest) (api.Calculation, error) {
	if req.IsEdit && req.ExistingID == "" {
		return api.Calculation{}, ErrMissingID
	}
	if req.Party.ID == 0 {
		return api.Calculation{}, fmt.Errorf("%w: party id required", ErrInvalidInput)
	}
	if len(req.TripIDs) == 0 {
		return api.Calculation{}, fmt.Errorf("%w: %w", ErrInvalidInput, settlement.ErrNoTrips)
	}
	seen := make(map[uint]bool, len(req.TripIDs))
	for _, id := range req.TripIDs {
		if seen[id] {
			return api.Calculation{}, fmt.Errorf("%w: %w", ErrInvalidInput, settlement.ErrDuplicateTrip)
		}
		seen[id] = true
	}
	ownership := req.Party.Ownership
	if ownership == "" {
		ownership = req.Result.Ownership
	}
	if ownership != req.Result.Ownership {
		return api.Calculation{}, fmt.Errorf("%w: %s result cannot be saved for a %s party", ErrInvalidInput, req.Result.Ownership, ownership)
	}

	sr := api.SettlementRequest{TripIDs: req.TripIDs}
	id := req.Party.ID
	if ownership == settlement.OwnershipFleet {
		sr.FleetOwnerID = &id
	} else {
		sr.DriverID = &id
	}
	payload := api.NewPayload(sr, req.Result)

	var (
		out api.Calculation
		err error
	)
	if req.IsEdit {
		out, err = s.Store.UpdateCalculation(ctx, req.ExistingID, payload)
	} else {
		out, err = s.Store.CreateCalculation(ctx, payload)
	}
	if err != nil {
		return api.Calculation{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	events.Emit(ctx, s.Events, events.TopicCalculationSaved, events.CalculationSaved{
		ID:        out.ID,
		Ownership: out.Ownership,
		PartyID:   id,
		TripIDs:   out.TripIDs,
		Due:       out.Due,
		Direction: out.Direction,
		Edited:    req.IsEdit,
		At:        time.Now().UTC(),
	})
	return out, nil
}

func (s *CalculationService) Get(ctx context.Context, id string) (api.Calculation, error) {
	c, err := s.Store.GetCalculation(ctx, id)
	if err != nil {
		return api.Calculation{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return c, nil
}

func (s *CalculationService) ListForDriver(ctx context.Context, driverID uint) ([]api.Calculation, error) {
	out, err := s.Store.GetCalculationsForDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return out, nil
}

func (s *CalculationService) ListForFleetOwner(ctx context.Context, ownerID uint) ([]api.Calculation, error) {
	out, err := s.Store.GetCalculationsForFleetOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return out, nil
}

func (s *CalculationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if err := s.Store.DeleteCalculation(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	events.Emit(ctx, s.Events, events.TopicCalculationDeleted, events.CalculationDeleted{ID: id, At: time.Now().UTC()})
	return nil
}
