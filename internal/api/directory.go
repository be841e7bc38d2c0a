package api

import (
	"time"

	"github.com/diewo77/haulage/internal/models"
	"github.com/shopspring/decimal"
)

type Driver struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	License string `json:"license,omitempty"`
}

func FromDriver(d models.Driver) Driver {
	return Driver{ID: d.ID, Name: d.Name, Phone: d.Phone, License: d.License}
}

type FleetOwner struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

func FromFleetOwner(f models.FleetOwner) FleetOwner {
	return FleetOwner{ID: f.ID, Name: f.Name, Phone: f.Phone, Email: f.Email}
}

type Vehicle struct {
	ID           uint   `json:"id"`
	Number       string `json:"number"`
	Ownership    string `json:"ownership"`
	FleetOwnerID *uint  `json:"fleetOwnerId,omitempty"`
}

func FromVehicle(v models.Vehicle) Vehicle {
	return Vehicle{ID: v.ID, Number: v.Number, Ownership: v.Ownership, FleetOwnerID: v.FleetOwnerID}
}

// TripBooking is the body used to book a trip. Ownership is taken from the
// vehicle.
type TripBooking struct {
	TripNumber    string              `json:"tripNumber"`
	ScheduledDate time.Time           `json:"scheduledDate"`
	VehicleID     uint                `json:"vehicleId"`
	DriverID      *uint               `json:"driverId,omitempty"`
	PodBalance    decimal.NullDecimal `json:"podBalance"`
	Loads         []Load              `json:"loads,omitempty"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// List wraps an unpaginated list response.
type List[T any] struct {
	Items []T `json:"items"`
}
