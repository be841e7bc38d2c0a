package models

import "time"

// Driver of a vehicle.
type Driver struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"`
	Phone     string
	License   string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FleetOwner owns vehicles hired for trips and is settled separately from drivers.
type FleetOwner struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"`
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Vehicle entity. FleetOwnerID is set for fleet vehicles only.
type Vehicle struct {
	ID           uint        `gorm:"primaryKey"`
	Number       string      `gorm:"not null;uniqueIndex"` // registration plate
	Ownership    string      `gorm:"not null;default:'self'"`
	FleetOwnerID *uint       `gorm:"index"`
	FleetOwner   *FleetOwner `gorm:"foreignKey:FleetOwnerID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
