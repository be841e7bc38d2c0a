package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/events"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/shopspring/decimal"
)

// memStore records the calls made by CalculationService.
type memStore struct {
	created []api.CalculationPayload
	updated map[string]api.CalculationPayload
	deleted []string
	err     error
}

func (m *memStore) GetCalculationsForDriver(context.Context, uint) ([]api.Calculation, error) {
	return nil, m.err
}

func (m *memStore) GetCalculationsForFleetOwner(context.Context, uint) ([]api.Calculation, error) {
	return nil, m.err
}

func (m *memStore) GetCalculation(_ context.Context, id string) (api.Calculation, error) {
	if m.err != nil {
		return api.Calculation{}, m.err
	}
	return api.Calculation{ID: id}, nil
}

func (m *memStore) CreateCalculation(_ context.Context, p api.CalculationPayload) (api.Calculation, error) {
	if m.err != nil {
		return api.Calculation{}, m.err
	}
	m.created = append(m.created, p)
	return api.Calculation{ID: "new-id", CalculationPayload: p}, nil
}

func (m *memStore) UpdateCalculation(_ context.Context, id string, p api.CalculationPayload) (api.Calculation, error) {
	if m.err != nil {
		return api.Calculation{}, m.err
	}
	if m.updated == nil {
		m.updated = map[string]api.CalculationPayload{}
	}
	m.updated[id] = p
	return api.Calculation{ID: id, CalculationPayload: p}, nil
}

func (m *memStore) DeleteCalculation(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func computed(t *testing.T, ledger settlement.Ledger) settlement.Result {
	t.Helper()
	in := settlement.Input{
		OldKm:           decimal.NewFromInt(1000),
		NewKm:           decimal.NewFromInt(1500),
		PerKmRate:       decimal.RequireFromString("19.5"),
		PreviousBalance: decimal.NewFromInt(-200),
	}
	r, err := settlement.Compute([]settlement.Trip{{ID: 1, Ledger: ledger}}, in)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return r
}

func TestSaveOrUpdateCreatesSnapshot(t *testing.T) {
	store := &memStore{}
	rec := &events.Recorder{}
	svc := NewCalculationService(store, rec)
	r := computed(t, settlement.SelfLedger{})

	out, err := svc.SaveOrUpdate(context.Background(), SaveRequest{
		Party:   Party{Ownership: settlement.OwnershipSelf, ID: 5},
		Result:  r,
		TripIDs: []uint{1},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if out.ID != "new-id" || len(store.created) != 1 {
		t.Fatalf("expected one create, got %#v", store.created)
	}
	p := store.created[0]
	if p.DriverID == nil || *p.DriverID != 5 || p.FleetOwnerID != nil {
		t.Fatalf("party not set on payload: %#v", p)
	}
	if !p.Due.Equal(r.Due) || !p.KmValue.Equal(decimal.NewFromInt(9750)) || p.Direction != string(r.Direction) {
		t.Fatalf("payload is not a full snapshot: %#v", p)
	}
	if len(rec.Topics) != 1 || rec.Topics[0] != events.TopicCalculationSaved {
		t.Fatalf("expected saved event, got %v", rec.Topics)
	}
}

func TestSaveOrUpdateEdit(t *testing.T) {
	store := &memStore{}
	svc := NewCalculationService(store, nil)
	r := computed(t, settlement.FleetLedger{})

	if _, err := svc.SaveOrUpdate(context.Background(), SaveRequest{
		Party: Party{ID: 2}, Result: r, TripIDs: []uint{1}, IsEdit: true,
	}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	out, err := svc.SaveOrUpdate(context.Background(), SaveRequest{
		Party: Party{ID: 2}, Result: r, TripIDs: []uint{1}, IsEdit: true, ExistingID: "abc",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if out.ID != "abc" || len(store.created) != 0 {
		t.Fatalf("edit must update in place: %#v", out)
	}
	if p := store.updated["abc"]; p.FleetOwnerID == nil || *p.FleetOwnerID != 2 || p.Ownership != "fleet" {
		t.Fatalf("unexpected edit payload %#v", p)
	}
}

func TestSaveOrUpdateValidationAndFailures(t *testing.T) {
	r := computed(t, settlement.SelfLedger{})
	tests := []struct {
		name string
		req  SaveRequest
		want error
	}{
		{"no party", SaveRequest{Result: r, TripIDs: []uint{1}}, ErrInvalidInput},
		{"no trips", SaveRequest{Party: Party{ID: 1}, Result: r}, settlement.ErrNoTrips},
		{"duplicate trips", SaveRequest{Party: Party{ID: 1}, Result: r, TripIDs: []uint{1, 1}}, settlement.ErrDuplicateTrip},
		{"ownership mismatch", SaveRequest{Party: Party{Ownership: settlement.OwnershipFleet, ID: 1}, Result: r, TripIDs: []uint{1}}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			_, err := NewCalculationService(store, nil).SaveOrUpdate(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(store.created) != 0 {
				t.Fatal("nothing should be submitted on validation failure")
			}
		})
	}

	boom := errors.New("backend down")
	_, err := NewCalculationService(&memStore{err: boom}, nil).SaveOrUpdate(context.Background(), SaveRequest{
		Party: Party{ID: 1}, Result: r, TripIDs: []uint{1},
	})
	if !errors.Is(err, ErrStore) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestDeletePublishes(t *testing.T) {
	store := &memStore{}
	rec := &events.Recorder{}
	svc := NewCalculationService(store, rec)
	if err := svc.Delete(context.Background(), ""); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if err := svc.Delete(context.Background(), "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || len(rec.Topics) != 1 || rec.Topics[0] != events.TopicCalculationDeleted {
		t.Fatalf("deleted=%v topics=%v", store.deleted, rec.Topics)
	}
}
