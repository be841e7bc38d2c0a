package settlement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoRecords is the reason text of a placeholder row.
const NoRecords = "no records"

// Line is one row of the advances or expenses table.
type Line struct {
	Date        time.Time
	TripID      uint
	TripNumber  string
	Amount      decimal.Decimal
	Reason      string
	Recipient   string
	Placeholder bool
}

// Lines are the flattened ledger tables of a statement.
type Lines struct {
	Advances []Line
	Expenses []Line
}

// BuildStatementLines flattens every trip's ledger into table rows. Rows keep
// trip order, then entry order within the trip; they are not sorted by date.
// A trip without entries in a category gets a single placeholder row there.
func BuildStatementLines(trips []Trip) Lines {
	return Lines{
		Advances: flatten(trips, CategoryAdvance),
		Expenses: flatten(trips, CategoryExpense),
	}
}

func flatten(trips []Trip, c Category) []Line {
	lines := make([]Line, 0, len(trips))
	for _, t := range trips {
		entries := t.entries(c)
		if len(entries) == 0 {
			lines = append(lines, Line{
				Date:        t.Date,
				TripID:      t.ID,
				TripNumber:  t.Number,
				Amount:      decimal.Zero,
				Reason:      NoRecords,
				Placeholder: true,
			})
			continue
		}
		for _, e := range entries {
			date := e.RecordedAt
			if date.IsZero() {
				date = t.Date
			}
			lines = append(lines, Line{
				Date:       date,
				TripID:     t.ID,
				TripNumber: t.Number,
				Amount:     e.Value(),
				Reason:     e.Reason,
				Recipient:  e.Recipient,
			})
		}
	}
	return lines
}

// Row is a labelled amount in the KM block or summary. Code identifies the
// label for translation.
type Row struct {
	Code   string
	Label  string
	Amount decimal.Decimal
}

// PodBlock is printed on fleet statements. The POD balances come from the
// trips as supplied; they are only added up and subtracted here.
type PodBlock struct {
	Balances    []Row
	Total       decimal.Decimal
	NetAfterPod decimal.Decimal
}

// Statement is the structured content of a printable settlement statement.
type Statement struct {
	Ownership Ownership
	Lines     Lines
	KmBlock   []Row
	Summary   []Row
	Direction Direction
	Label     string
	Pod       *PodBlock
}

// BuildStatement assembles the full statement for a computed result.
func BuildStatement(trips []Trip, r Result) Statement {
	st := Statement{
		Ownership: r.Ownership,
		Lines:     BuildStatementLines(trips),
		KmBlock: []Row{
			{Code: "old_km", Label: "Old KM", Amount: r.OldKm},
			{Code: "new_km", Label: "New KM", Amount: r.NewKm},
			{Code: "total_km", Label: "Total KM", Amount: r.TotalKm},
			{Code: "per_km_rate", Label: "Rate per KM", Amount: r.PerKmRate},
			{Code: "km_value", Label: "KM value", Amount: r.KmValue},
			{Code: "next_service_km", Label: "Next service KM", Amount: r.NextServiceKm},
		},
		Summary: []Row{
			{Code: "km_value", Label: "KM value", Amount: r.KmValue},
			{Code: "total_expenses", Label: "Total expenses", Amount: r.TotalExpenses},
			{Code: "previous_balance", Label: "Previous balance", Amount: r.PreviousBalance},
			{Code: "total", Label: "Total", Amount: r.Total},
			{Code: "total_advances", Label: "Total advances", Amount: r.TotalAdvances},
			{Code: "due", Label: "Due", Amount: r.Due},
		},
		Direction: r.Direction,
		Label:     r.Label(),
	}
	if r.Ownership == OwnershipFleet {
		st.Pod = podBlock(trips, r.Due)
	}
	return st
}

func podBlock(trips []Trip, due decimal.Decimal) *PodBlock {
	b := &PodBlock{Total: decimal.Zero}
	for _, t := range trips {
		v := decimal.Zero
		if t.PodBalance.Valid {
			v = t.PodBalance.Decimal
		}
		b.Balances = append(b.Balances, Row{Code: "pod_balance", Label: t.Number, Amount: v})
		b.Total = b.Total.Add(v)
	}
	b.NetAfterPod = due.Sub(b.Total)
	return b
}

// LedgerChanged reports whether the trips' current ledgers no longer add up
// to the totals stored in r.
func LedgerChanged(trips []Trip, r Result) bool {
	return !Sum(trips, CategoryAdvance).Equal(r.TotalAdvances) ||
		!Sum(trips, CategoryExpense).Equal(r.TotalExpenses)
}

// Money formats an amount for display or print, rounded to 2 decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// DirectionCode is the translation code of the direction label, e.g.
// "to_be_paid_by_fleet_owner".
func DirectionCode(d Direction, o Ownership) string {
	party := "driver"
	if o == OwnershipFleet {
		party = "fleet_owner"
	}
	switch d {
	case DirectionPayToParty:
		return "to_be_paid_to_" + party
	case DirectionPayByParty:
		return "to_be_paid_by_" + party
	}
	return "no_outstanding_balance"
}

// DirectionLabel is the English settlement direction label.
func DirectionLabel(d Direction, o Ownership) string {
	return strings.ReplaceAll(DirectionCode(d, o), "_", " ")
}
