// Package api holds the JSON records exchanged with the settlement backend.
// Field names are camelCase on the wire.
package api

import (
	"time"

	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one advance or expense. A null amount counts as zero.
type LedgerEntry struct {
	Amount    decimal.NullDecimal `json:"amount"`
	Reason    string              `json:"reason,omitempty"`
	Date      time.Time           `json:"date,omitzero"`
	Recipient string              `json:"recipient,omitempty"`
	Reference string              `json:"reference,omitempty"`
}

// Load is one client's consignment on a trip.
type Load struct {
	ClientName  string              `json:"clientName"`
	Origin      string              `json:"origin,omitempty"`
	Destination string              `json:"destination,omitempty"`
	Material    string              `json:"material,omitempty"`
	Weight      decimal.NullDecimal `json:"weight"`
	Freight     decimal.NullDecimal `json:"freight"`
}

// Trip carries either the self or the fleet ledger arrays, never both.
type Trip struct {
	ID            uint                `json:"id"`
	TripNumber    string              `json:"tripNumber"`
	ScheduledDate time.Time           `json:"scheduledDate"`
	VehicleID     uint                `json:"vehicleId,omitempty"`
	VehicleNumber string              `json:"vehicleNumber,omitempty"`
	DriverID      *uint               `json:"driverId,omitempty"`
	FleetOwnerID  *uint               `json:"fleetOwnerId,omitempty"`
	Ownership     string              `json:"ownership,omitempty"`
	PodStatus     string              `json:"podStatus,omitempty"`
	PodBalance    decimal.NullDecimal `json:"podBalance"`
	Loads         []Load              `json:"loads,omitempty"`
	SelfAdvances  []LedgerEntry       `json:"selfAdvances,omitempty"`
	SelfExpenses  []LedgerEntry       `json:"selfExpenses,omitempty"`
	FleetAdvances []LedgerEntry       `json:"fleetAdvances,omitempty"`
	FleetExpenses []LedgerEntry       `json:"fleetExpenses,omitempty"`
}

// FromTrip converts a stored trip. Entries land in the arrays matching the
// trip's ownership.
func FromTrip(t models.Trip) Trip {
	out := Trip{
		ID:            t.ID,
		TripNumber:    t.TripNumber,
		ScheduledDate: t.ScheduledDate,
		VehicleID:     t.VehicleID,
		VehicleNumber: t.Vehicle.Number,
		DriverID:      t.DriverID,
		FleetOwnerID:  t.FleetOwnerID,
		Ownership:     t.Ownership,
		PodStatus:     t.PodStatus,
		PodBalance:    t.PodBalance,
	}
	for _, l := range t.Loads {
		out.Loads = append(out.Loads, Load{
			ClientName:  l.ClientName,
			Origin:      l.Origin,
			Destination: l.Destination,
			Material:    l.Material,
			Weight:      l.Weight,
			Freight:     l.Freight,
		})
	}
	adv := entriesFrom(t.EntriesFor(models.CategoryAdvance))
	exp := entriesFrom(t.EntriesFor(models.CategoryExpense))
	if t.IsFleet() {
		out.FleetAdvances, out.FleetExpenses = adv, exp
	} else {
		out.SelfAdvances, out.SelfExpenses = adv, exp
	}
	return out
}

func entriesFrom(in []models.LedgerEntry) []LedgerEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]LedgerEntry, 0, len(in))
	for _, e := range in {
		out = append(out, LedgerEntry{
			Amount:    e.Amount,
			Reason:    e.Reason,
			Date:      e.RecordedAt,
			Recipient: e.Recipient,
			Reference: e.Reference,
		})
	}
	return out
}

// ResolvedOwnership returns the ownership of the trip. An explicit value
// wins; otherwise it is inferred from which arrays are present. Empty
// means the trip carries no ledger.
func (t Trip) ResolvedOwnership() settlement.Ownership {
	if o := settlement.Ownership(t.Ownership); o.Valid() {
		return o
	}
	if len(t.FleetAdvances) > 0 || len(t.FleetExpenses) > 0 {
		return settlement.OwnershipFleet
	}
	if len(t.SelfAdvances) > 0 || len(t.SelfExpenses) > 0 {
		return settlement.OwnershipSelf
	}
	return ""
}

// Settlement returns the calculator's view of the trip.
func (t Trip) Settlement() settlement.Trip {
	out := settlement.Trip{
		ID:           t.ID,
		Number:       t.TripNumber,
		Date:         t.ScheduledDate,
		DriverID:     t.DriverID,
		FleetOwnerID: t.FleetOwnerID,
		PodBalance:   t.PodBalance,
	}
	switch t.ResolvedOwnership() {
	case settlement.OwnershipFleet:
		out.Ledger = settlement.FleetLedger{Advances: toEntries(t.FleetAdvances), Expenses: toEntries(t.FleetExpenses)}
	case settlement.OwnershipSelf:
		out.Ledger = settlement.SelfLedger{Advances: toEntries(t.SelfAdvances), Expenses: toEntries(t.SelfExpenses)}
	}
	return out
}

func toEntries(in []LedgerEntry) []settlement.Entry {
	out := make([]settlement.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, settlement.Entry{
			Amount:     e.Amount,
			Reason:     e.Reason,
			RecordedAt: e.Date,
			Recipient:  e.Recipient,
			Reference:  e.Reference,
		})
	}
	return out
}

// SettlementTrips converts a list of wire trips.
func SettlementTrips(trips []Trip) []settlement.Trip {
	out := make([]settlement.Trip, 0, len(trips))
	for _, t := range trips {
		out = append(out, t.Settlement())
	}
	return out
}

// PodStatusUpdate is the body of UpdateTripPodStatus.
type PodStatusUpdate struct {
	Status string `json:"status"`
}

// PodStatusResult is its reply.
type PodStatusResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
}

