package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IDList is a JSON array of trip ids stored in a single column.
type IDList []uint

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uint(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *IDList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into IDList", value)
	}
}

func (IDList) GormDataType() string { return "json" }

// Calculation is a saved settlement. It is a full snapshot: editing replaces
// every field except ID and CreatedAt.
type Calculation struct {
	ID           string `gorm:"primaryKey;size:36"`
	Ownership    string `gorm:"not null;index"`
	DriverID     *uint  `gorm:"index"`
	FleetOwnerID *uint  `gorm:"index"`
	TripIDs      IDList

	OldKm           decimal.Decimal `gorm:"type:numeric;not null"`
	NewKm           decimal.Decimal `gorm:"type:numeric;not null"`
	PerKmRate       decimal.Decimal `gorm:"type:numeric;not null"`
	PreviousBalance decimal.Decimal `gorm:"type:numeric;not null"`
	NextServiceKm   decimal.Decimal `gorm:"type:numeric"`

	TotalKm       decimal.Decimal `gorm:"type:numeric;not null"`
	KmValue       decimal.Decimal `gorm:"type:numeric;not null"`
	TotalExpenses decimal.Decimal `gorm:"type:numeric;not null"`
	TotalAdvances decimal.Decimal `gorm:"type:numeric;not null"`
	Total         decimal.Decimal `gorm:"type:numeric;not null"`
	Due           decimal.Decimal `gorm:"type:numeric;not null"`
	Direction     string          `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PartyID returns the driver or fleet owner id the calculation settles.
func (c *Calculation) PartyID() uint {
	if c.Ownership == OwnershipFleet && c.FleetOwnerID != nil {
		return *c.FleetOwnerID
	}
	if c.DriverID != nil {
		return *c.DriverID
	}
	return 0
}
