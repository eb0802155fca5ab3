package domain

import (
	"time"

	"github.com/google/uuid"
)

// Produce stock states, derived from quantity
const (
	ProduceInStock    = "in_stock"
	ProduceOutOfStock = "out_of_stock"
)

// Produce represents a crop listing owned by a farmer
// Maps to PostgreSQL produce table
type Produce struct {
	CropID     uuid.UUID `json:"crop_id" db:"crop_id"`
	FarmerID   uuid.UUID `json:"farmer_id" db:"farmer_id"`
	CropName   string    `json:"crop_name" db:"crop_name"`
	Quantity   int       `json:"quantity" db:"quantity"` // kg
	PricePerKg float64   `json:"price_per_kg" db:"price_per_kg"`
	Type       string    `json:"type" db:"type"` // vegetable, fruit
	ImageURL   *string   `json:"image_url,omitempty" db:"image_url"`
	Status     string    `json:"status" db:"status"` // in_stock, out_of_stock
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ProduceCreate represents data to publish a new listing
type ProduceCreate struct {
	CropName   string  `json:"crop_name" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required,min=1"`
	PricePerKg float64 `json:"price_per_kg" binding:"required,gt=0"`
	Type       string  `json:"type" binding:"required,oneof=vegetable fruit"`
	ImageURL   *string `json:"image_url,omitempty"`
}

// ProduceUpdate represents a partial update of an existing listing
type ProduceUpdate struct {
	Quantity   *int     `json:"quantity,omitempty" binding:"omitempty,min=0"`
	PricePerKg *float64 `json:"price_per_kg,omitempty" binding:"omitempty,gt=0"`
	ImageURL   *string  `json:"image_url,omitempty"`
}

// ProduceWithFarmer is a listing joined with its owner's name, for the
// retailer-facing catalog.
type ProduceWithFarmer struct {
	Produce
	FarmerName string `json:"farmer_name"`
}

// StatusForQuantity derives the stock state from quantity.
func StatusForQuantity(quantity int) string {
	if quantity > 0 {
		return ProduceInStock
	}
	return ProduceOutOfStock
}
