package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoTrips         = errors.New("at least one trip is required")
	ErrInvalidOdometer = errors.New("New KM should be greater than Old KM")
	ErrNegativeRate    = errors.New("per km rate must not be negative")
	ErrMixedLedgers    = errors.New("self and fleet trips cannot be settled together")
	ErrDuplicateTrip   = errors.New("a trip is listed more than once")
)

// ValidationError reports which input field failed. It unwraps to one of the
// Err* sentinels above.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Input holds the values entered by the operator for a settlement.
type Input struct {
	OldKm           decimal.Decimal
	NewKm           decimal.Decimal
	PerKmRate       decimal.Decimal
	PreviousBalance decimal.Decimal // negative = debit carried forward
	NextServiceKm   decimal.Decimal // informational only
}

// Validate checks the odometer ordering and the rate.
func (in Input) Validate() error {
	if !in.NewKm.GreaterThan(in.OldKm) {
		return invalid("newKm", ErrInvalidOdometer)
	}
	if in.PerKmRate.IsNegative() {
		return invalid("perKmRate", ErrNegativeRate)
	}
	return nil
}

// Direction says which way the due amount flows.
type Direction string

const (
	DirectionPayToParty Direction = "pay_to_party"
	DirectionPayByParty Direction = "pay_by_party"
	DirectionSettled    Direction = "settled"
)

// DirectionOf derives the direction from the sign of due.
func DirectionOf(due decimal.Decimal) Direction {
	switch due.Sign() {
	case 1:
		return DirectionPayToParty
	case -1:
		return DirectionPayByParty
	}
	return DirectionSettled
}

// Result is a computed settlement. It echoes the input it was computed from.
type Result struct {
	Input
	Ownership     Ownership
	TotalKm       decimal.Decimal
	KmValue       decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalAdvances decimal.Decimal
	Total         decimal.Decimal
	Due           decimal.Decimal
	Direction     Direction
}

// Label returns the English direction label for the result.
func (r Result) Label() string {
	return DirectionLabel(r.Direction, r.Ownership)
}

// Compute settles the given trips against the operator input:
//
//	totalKm = newKm - oldKm
//	kmValue = totalKm * perKmRate
//	total   = kmValue + totalExpenses + previousBalance
//	due     = total - totalAdvances
//
// No rounding is applied.
func Compute(trips []Trip, in Input) (Result, error) {
	if len(trips) == 0 {
		return Result{}, invalid("trips", ErrNoTrips)
	}
	seen := make(map[uint]bool, len(trips))
	for _, t := range trips {
		if t.ID == 0 {
			continue
		}
		if seen[t.ID] {
			return Result{}, invalid("tripIds", ErrDuplicateTrip)
		}
		seen[t.ID] = true
	}
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	ownership, err := ownershipOf(trips)
	if err != nil {
		return Result{}, err
	}

	totalKm := in.NewKm.Sub(in.OldKm)
	kmValue := totalKm.Mul(in.PerKmRate)
	totalExpenses := Sum(trips, CategoryExpense)
	totalAdvances := Sum(trips, CategoryAdvance)
	total := kmValue.Add(totalExpenses).Add(in.PreviousBalance)
	due := total.Sub(totalAdvances)

	return Result{
		Input:         in,
		Ownership:     ownership,
		TotalKm:       totalKm,
		KmValue:       kmValue,
		TotalExpenses: totalExpenses,
		TotalAdvances: totalAdvances,
		Total:         total,
		Due:           due,
		Direction:     DirectionOf(due),
	}, nil
}

// ownershipOf returns the common ownership of the trips' ledgers. Trips
// without a ledger take the ownership of the others.
func ownershipOf(trips []Trip) (Ownership, error) {
	var found Ownership
	for _, t := range trips {
		if t.Ledger == nil {
			continue
		}
		o := t.Ledger.Ownership()
		if found == "" {
			found = o
			continue
		}
		if o != found {
			return "", invalid("trips", ErrMixedLedgers)
		}
	}
	if found == "" {
		found = OwnershipSelf
	}
	return found, nil
}
