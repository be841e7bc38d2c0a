package api

import (
	"time"

	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/shopspring/decimal"
)

// SettlementRequest is the operator input for a settlement over some trips.
type SettlementRequest struct {
	DriverID        *uint           `json:"driverId,omitempty"`
	FleetOwnerID    *uint           `json:"fleetOwnerId,omitempty"`
	TripIDs         []uint          `json:"tripIds"`
	OldKm           decimal.Decimal `json:"oldKm"`
	NewKm           decimal.Decimal `json:"newKm"`
	PerKmRate       decimal.Decimal `json:"perKmRate"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NextServiceKm   decimal.Decimal `json:"nextServiceKm"`
}

// Input returns the calculator input part of the request.
func (r SettlementRequest) Input() settlement.Input {
	return settlement.Input{
		OldKm:           r.OldKm,
		NewKm:           r.NewKm,
		PerKmRate:       r.PerKmRate,
		PreviousBalance: r.PreviousBalance,
		NextServiceKm:   r.NextServiceKm,
	}
}

// CalculationPayload is the full snapshot submitted on create and update:
// the input plus every derived value.
type CalculationPayload struct {
	SettlementRequest
	Ownership     string          `json:"ownership"`
	TotalKm       decimal.Decimal `json:"totalKm"`
	KmValue       decimal.Decimal `json:"kmValue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	TotalAdvances decimal.Decimal `json:"totalAdvances"`
	Total         decimal.Decimal `json:"total"`
	Due           decimal.Decimal `json:"due"`
	Direction     string          `json:"direction"`
}

// NewPayload builds a snapshot from a computed result.
func NewPayload(req SettlementRequest, r settlement.Result) CalculationPayload {
	in := r.Input
	req.OldKm, req.NewKm, req.PerKmRate = in.OldKm, in.NewKm, in.PerKmRate
	req.PreviousBalance, req.NextServiceKm = in.PreviousBalance, in.NextServiceKm
	return CalculationPayload{
		SettlementRequest: req,
		Ownership:         string(r.Ownership),
		TotalKm:           r.TotalKm,
		KmValue:           r.KmValue,
		TotalExpenses:     r.TotalExpenses,
		TotalAdvances:     r.TotalAdvances,
		Total:             r.Total,
		Due:               r.Due,
		Direction:         string(r.Direction),
	}
}

// Result rebuilds the calculator result stored in the snapshot.
func (p CalculationPayload) Result() settlement.Result {
	return settlement.Result{
		Input:         p.Input(),
		Ownership:     settlement.Ownership(p.Ownership),
		TotalKm:       p.TotalKm,
		KmValue:       p.KmValue,
		TotalExpenses: p.TotalExpenses,
		TotalAdvances: p.TotalAdvances,
		Total:         p.Total,
		Due:           p.Due,
		Direction:     settlement.Direction(p.Direction),
	}
}

// Model maps the snapshot onto a storable record. ID and timestamps are left
// to the store.
func (p CalculationPayload) Model() models.Calculation {
	return models.Calculation{
		Ownership:       p.Ownership,
		DriverID:        p.DriverID,
		FleetOwnerID:    p.FleetOwnerID,
		TripIDs:         models.IDList(p.TripIDs),
		OldKm:           p.OldKm,
		NewKm:           p.NewKm,
		PerKmRate:       p.PerKmRate,
		PreviousBalance: p.PreviousBalance,
		NextServiceKm:   p.NextServiceKm,
		TotalKm:         p.TotalKm,
		KmValue:         p.KmValue,
		TotalExpenses:   p.TotalExpenses,
		TotalAdvances:   p.TotalAdvances,
		Total:           p.Total,
		Due:             p.Due,
		Direction:       p.Direction,
	}
}

// Calculation is a saved calculation record.
type Calculation struct {
	ID string `json:"id"`
	CalculationPayload
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromCalculation converts a stored calculation.
func FromCalculation(c models.Calculation) Calculation {
	return Calculation{
		ID: c.ID,
		CalculationPayload: CalculationPayload{
			SettlementRequest: SettlementRequest{
				DriverID:        c.DriverID,
				FleetOwnerID:    c.FleetOwnerID,
				TripIDs:         []uint(c.TripIDs),
				OldKm:           c.OldKm,
				NewKm:           c.NewKm,
				PerKmRate:       c.PerKmRate,
				PreviousBalance: c.PreviousBalance,
				NextServiceKm:   c.NextServiceKm,
			},
			Ownership:     c.Ownership,
			TotalKm:       c.TotalKm,
			KmValue:       c.KmValue,
			TotalExpenses: c.TotalExpenses,
			TotalAdvances: c.TotalAdvances,
			Total:         c.Total,
			Due:           c.Due,
			Direction:     c.Direction,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// StatementLine is one row of the advances or expenses table.
type StatementLine struct {
	Date        time.Time       `json:"date,omitzero"`
	TripID      uint            `json:"tripId"`
	TripNumber  string          `json:"tripNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	Recipient   string          `json:"recipient,omitempty"`
	Placeholder bool            `json:"placeholder,omitempty"`
}

// SettlementPreview is a computed settlement with its statement tables,
// returned without saving anything.
type SettlementPreview struct {
	Calculation CalculationPayload `json:"calculation"`
	Label       string             `json:"label"`
	Advances    []StatementLine    `json:"advances"`
	Expenses    []StatementLine    `json:"expenses"`
	PodTotal    *decimal.Decimal   `json:"podTotal,omitempty"`
	NetAfterPod *decimal.Decimal   `json:"netAfterPod,omitempty"`
}

// NewPreview assembles a preview from a built statement.
func NewPreview(p CalculationPayload, st settlement.Statement) SettlementPreview {
	out := SettlementPreview{
		Calculation: p,
		Label:       st.Label,
		Advances:    linesFrom(st.Lines.Advances),
		Expenses:    linesFrom(st.Lines.Expenses),
	}
	if st.Pod != nil {
		total, net := st.Pod.Total, st.Pod.NetAfterPod
		out.PodTotal, out.NetAfterPod = &total, &net
	}
	return out
}

func linesFrom(in []settlement.Line) []StatementLine {
	out := make([]StatementLine, 0, len(in))
	for _, l := range in {
		out = append(out, StatementLine{
			Date:        l.Date,
			TripID:      l.TripID,
			TripNumber:  l.TripNumber,
			Amount:      l.Amount,
			Reason:      l.Reason,
			Recipient:   l.Recipient,
			Placeholder: l.Placeholder,
		})
	}
	return out
}
