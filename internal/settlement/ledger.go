// Package settlement computes the net amount owed between the operator and a
// driver or fleet owner for a set of trips, and assembles the line items of
// the printable statement. Everything here is a pure function of its inputs.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ownership tells whose vehicle ran a trip, and therefore which ledger it carries.
type Ownership string

const (
	OwnershipSelf  Ownership = "self"
	OwnershipFleet Ownership = "fleet"
)

// Valid reports whether o is a known ownership type.
func (o Ownership) Valid() bool {
	return o == OwnershipSelf || o == OwnershipFleet
}

// Category is the kind of ledger entry.
type Category string

const (
	CategoryAdvance Category = "advance"
	CategoryExpense Category = "expense"
)

func (c Category) Valid() bool {
	return c == CategoryAdvance || c == CategoryExpense
}

// Entry is a single advance or expense recorded against a trip.
// An entry without an amount (Amount.Valid == false) counts as zero.
type Entry struct {
	Amount     decimal.NullDecimal
	Reason     string
	RecordedAt time.Time
	Recipient  string
	Reference  string
}

// Value returns the entry amount, zero when absent.
func (e Entry) Value() decimal.Decimal {
	if !e.Amount.Valid {
		return decimal.Zero
	}
	return e.Amount.Decimal
}

// Ledger is the advance/expense ledger of a trip. It is either a SelfLedger
// (self-owned vehicle) or a FleetLedger (fleet-owner vehicle), never both.
type Ledger interface {
	Ownership() Ownership
	Entries(c Category) []Entry
	isLedger()
}

// SelfLedger holds the selfAdvances/selfExpenses of a self-owned vehicle trip.
type SelfLedger struct {
	Advances []Entry
	Expenses []Entry
}

func (SelfLedger) Ownership() Ownership { return OwnershipSelf }

func (l SelfLedger) Entries(c Category) []Entry {
	return pick(c, l.Advances, l.Expenses)
}

func (SelfLedger) isLedger() {}

// FleetLedger holds the fleetAdvances/fleetExpenses of a fleet-owner vehicle trip.
type FleetLedger struct {
	Advances []Entry
	Expenses []Entry
}

func (FleetLedger) Ownership() Ownership { return OwnershipFleet }

func (l FleetLedger) Entries(c Category) []Entry {
	return pick(c, l.Advances, l.Expenses)
}

func (FleetLedger) isLedger() {}

// NewLedger builds the ledger variant matching the ownership type.
func NewLedger(o Ownership, advances, expenses []Entry) Ledger {
	if o == OwnershipFleet {
		return FleetLedger{Advances: advances, Expenses: expenses}
	}
	return SelfLedger{Advances: advances, Expenses: expenses}
}

func pick(c Category, advances, expenses []Entry) []Entry {
	switch c {
	case CategoryAdvance:
		return advances
	case CategoryExpense:
		return expenses
	}
	return nil
}

// Trip is the calculator's view of a trip record.
type Trip struct {
	ID           uint
	Number       string
	Date         time.Time
	DriverID     *uint
	FleetOwnerID *uint
	Ledger       Ledger
	// PodBalance is supplied by the booking side and is not derived here.
	PodBalance decimal.NullDecimal
}

func (t Trip) entries(c Category) []Entry {
	if t.Ledger == nil {
		return nil
	}
	return t.Ledger.Entries(c)
}

// Sum adds the amounts of the given category across all trips.
func Sum(trips []Trip, c Category) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trips {
		for _, e := range t.entries(c) {
			total = total.Add(e.Value())
		}
	}
	return total
}
