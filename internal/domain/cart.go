package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem represents one crop listing in a retailer's cart
// Maps to PostgreSQL cart_items table
type CartItem struct {
	CartItemID uuid.UUID `json:"cart_item_id" db:"cart_item_id"`
	RetailerID uuid.UUID `json:"retailer_id" db:"retailer_id"`
	CropID     uuid.UUID `json:"crop_id" db:"crop_id"`
	Quantity   int       `json:"quantity" db:"quantity"` // kg
	PricePerKg float64   `json:"price_per_kg" db:"price_per_kg"`
	TotalPrice float64   `json:"total_price" db:"total_price"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CartItemDetail is a cart row joined with listing and farmer info
type CartItemDetail struct {
	CartItem
	CropName   string  `json:"crop_name"`
	CropImage  *string `json:"crop_image,omitempty"`
	FarmerName string  `json:"farmer_name"`
}

// CartAdd represents a request to put a listing in the cart
type CartAdd struct {
	CropID uuid.UUID `json:"crop_id" binding:"required"`
}

// CartQuantityUpdate sets an item's quantity; values below 1 remove it
type CartQuantityUpdate struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CartSummary is the full cart with its grand total
type CartSummary struct {
	Items []CartItemDetail `json:"items"`
	Total float64          `json:"total"`
}
