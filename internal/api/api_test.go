package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/shopspring/decimal"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestFromTripPlacesEntriesByOwnership(t *testing.T) {
	owner := uint(4)
	trip := models.Trip{
		ID: 1, TripNumber: "F-1", Ownership: models.OwnershipFleet, FleetOwnerID: &owner,
		Entries: []models.LedgerEntry{
			{Category: models.CategoryAdvance, Position: 1, Amount: nd("200")},
			{Category: models.CategoryAdvance, Position: 0, Amount: nd("100")},
			{Category: models.CategoryExpense, Position: 0, Amount: nd("50")},
		},
	}
	w := FromTrip(trip)
	if len(w.SelfAdvances) != 0 || len(w.SelfExpenses) != 0 {
		t.Fatalf("fleet trip must not carry self arrays: %#v", w)
	}
	if len(w.FleetAdvances) != 2 || !w.FleetAdvances[0].Amount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected fleet advances %#v", w.FleetAdvances)
	}
	st := w.Settlement()
	if st.Ledger == nil || st.Ledger.Ownership() != settlement.OwnershipFleet {
		t.Fatalf("expected fleet ledger, got %#v", st.Ledger)
	}
	if got := settlement.Sum([]settlement.Trip{st}, settlement.CategoryAdvance); !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("advances sum = %s", got)
	}
}

func TestResolvedOwnership(t *testing.T) {
	tests := []struct {
		name string
		trip Trip
		want settlement.Ownership
	}{
		{"explicit", Trip{Ownership: "fleet", SelfAdvances: []LedgerEntry{{}}}, settlement.OwnershipFleet},
		{"fleet arrays", Trip{FleetExpenses: []LedgerEntry{{}}}, settlement.OwnershipFleet},
		{"self arrays", Trip{SelfAdvances: []LedgerEntry{{}}}, settlement.OwnershipSelf},
		{"none", Trip{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trip.ResolvedOwnership(); got != tt.want {
				t.Errorf("ResolvedOwnership() = %q, want %q", got, tt.want)
			}
		})
	}
	if (Trip{}).Settlement().Ledger != nil {
		t.Fatal("trip without arrays should have no ledger")
	}
}

func TestTripJSONNullAmount(t *testing.T) {
	body := `{"id":3,"tripNumber":"T-3","scheduledDate":"2024-04-01T00:00:00Z","selfAdvances":[{"amount":null,"reason":"pending"},{"amount":"125.50"}],"podBalance":null}`
	var tr Trip
	if err := json.Unmarshal([]byte(body), &tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.SelfAdvances[0].Amount.Valid {
		t.Fatal("null amount should decode as absent")
	}
	got := settlement.Sum([]settlement.Trip{tr.Settlement()}, settlement.CategoryAdvance)
	if !got.Equal(decimal.RequireFromString("125.5")) {
		t.Fatalf("sum = %s", got)
	}
}

func TestCalculationSnapshotRoundTrip(t *testing.T) {
	driver := uint(2)
	req := SettlementRequest{
		DriverID: &driver, TripIDs: []uint{1, 2},
		OldKm: decimal.NewFromInt(1000), NewKm: decimal.NewFromInt(1500),
		PerKmRate: decimal.RequireFromString("19.5"), PreviousBalance: decimal.NewFromInt(-200),
	}
	trip := settlement.Trip{ID: 1, Ledger: settlement.SelfLedger{
		Advances: []settlement.Entry{{Amount: nd("1000")}},
		Expenses: []settlement.Entry{{Amount: nd("300")}},
	}}
	r, err := settlement.Compute([]settlement.Trip{trip}, req.Input())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	p := NewPayload(req, r)
	m := p.Model()
	m.ID, m.CreatedAt = "abc", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := FromCalculation(m)
	if c.ID != "abc" || !c.Due.Equal(decimal.NewFromInt(8850)) || c.Direction != string(settlement.DirectionPayToParty) {
		t.Fatalf("unexpected calculation %#v", c)
	}
	if got := c.Result(); !got.Due.Equal(r.Due) || got.Ownership != settlement.OwnershipSelf {
		t.Fatalf("result mismatch %#v", got)
	}

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(b, &wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"id", "tripIds", "oldKm", "kmValue", "due", "direction", "createdAt"} {
		if _, ok := wire[k]; !ok {
			t.Errorf("missing %q in %s", k, b)
		}
	}
}
