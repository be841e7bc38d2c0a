package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OwnershipSelf  = "self"
	OwnershipFleet = "fleet"

	CategoryAdvance = "advance"
	CategoryExpense = "expense"
)

// Trip is a booked vehicle journey. Ownership decides which ledger its
// entries belong to; PodStatus follows started → complete → pod_received →
// pod_submitted → settled.
type Trip struct {
	ID            uint                `gorm:"primaryKey"`
	TripNumber    string              `gorm:"not null;uniqueIndex"`
	ScheduledDate time.Time           `gorm:"not null;index"`
	VehicleID     uint                `gorm:"not null;index"`
	Vehicle       Vehicle             `gorm:"foreignKey:VehicleID"`
	DriverID      *uint               `gorm:"index"`
	FleetOwnerID  *uint               `gorm:"index"`
	Ownership     string              `gorm:"not null;default:'self'"`
	PodStatus     string              `gorm:"not null;default:'started'"`
	PodBalance    decimal.NullDecimal `gorm:"type:numeric"` // as supplied by booking
	Loads         []TripLoad          `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	Entries       []LedgerEntry       `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFleet reports whether the trip ran on a fleet-owner vehicle.
func (t *Trip) IsFleet() bool { return t.Ownership == OwnershipFleet }

// EntriesFor returns the trip's entries of one category ordered by position.
func (t *Trip) EntriesFor(category string) []LedgerEntry {
	var out []LedgerEntry
	for _, e := range t.Entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// TripLoad is one client's consignment on a trip, in booking order.
type TripLoad struct {
	ID          uint                `gorm:"primaryKey"`
	TripID      uint                `gorm:"not null;index"`
	Position    int                 `gorm:"not null"`
	ClientName  string              `gorm:"not null"`
	Origin      string
	Destination string
	Material    string
	Weight      decimal.NullDecimal `gorm:"type:numeric"` // tonnes
	Freight     decimal.NullDecimal `gorm:"type:numeric"`
}

// LedgerEntry is an advance or expense against a trip. Amount may be absent.
type LedgerEntry struct {
	ID         uint                `gorm:"primaryKey"`
	TripID     uint                `gorm:"not null;index"`
	Category   string              `gorm:"not null;index"` // advance, expense
	Position   int                 `gorm:"not null"`
	Amount     decimal.NullDecimal `gorm:"type:numeric"`
	Reason     string
	RecordedAt time.Time
	Recipient  string
	Reference  string
	CreatedAt  time.Time
}
