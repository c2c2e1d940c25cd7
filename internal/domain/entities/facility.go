package entities

import (
	"time"
)

// Facility represents a hospital that owns beds and admission queues
type Facility struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Address      Address   `json:"address" db:"-"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	Email        string    `json:"email" db:"email"`
	FacilityType string    `json:"facility_type" db:"facility_type"`
	OwnerID      string    `json:"owner_id" db:"owner_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Address represents a physical address
type Address struct {
	Street  string `json:"street" db:"street"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	ZipCode string `json:"zip_code" db:"zip_code"`
	Country string `json:"country" db:"country"`
}
