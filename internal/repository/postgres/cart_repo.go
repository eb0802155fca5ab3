package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nammaraitha-backend/internal/domain"
)

// CartRepository handles cart persistence
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository creates a new cart repository
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Transaction provides transaction support for cart/stock updates
type Transaction struct {
	tx pgx.Tx
}

// BeginTx starts a new transaction
func (r *CartRepository) BeginTx(ctx context.Context) (*Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{tx: tx}, nil
}

// Commit commits the transaction
func (t *Transaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction
func (t *Transaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// GetByRetailerAndCrop finds the cart row for one listing, if present
func (r *CartRepository) GetByRetailerAndCrop(ctx context.Context, retailerID, cropID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT cart_item_id, retailer_id, crop_id, quantity, price_per_kg, total_price, created_at
		FROM cart_items
		WHERE retailer_id = $1 AND crop_id = $2
	`

	item := &domain.CartItem{}
	err := r.pool.QueryRow(ctx, query, retailerID, cropID).Scan(
		&item.CartItemID,
		&item.RetailerID,
		&item.CropID,
		&item.Quantity,
		&item.PricePerKg,
		&item.TotalPrice,
		&item.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}

	return item, nil
}

// GetByID retrieves a cart row by its ID
func (r *CartRepository) GetByID(ctx context.Context, cartItemID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT cart_item_id, retailer_id, crop_id, quantity, price_per_kg, total_price, created_at
		FROM cart_items
		WHERE cart_item_id = $1
	`

	item := &domain.CartItem{}
	err := r.pool.QueryRow(ctx, query, cartItemID).Scan(
		&item.CartItemID,
		&item.RetailerID,
		&item.CropID,
		&item.Quantity,
		&item.PricePerKg,
		&item.TotalPrice,
		&item.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}

	return item, nil
}

// Create inserts a new cart row
func (r *CartRepository) Create(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (
			cart_item_id, retailer_id, crop_id, quantity, price_per_kg, total_price, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		item.CartItemID,
		item.RetailerID,
		item.CropID,
		item.Quantity,
		item.PricePerKg,
		item.TotalPrice,
		item.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	return nil
}

// UpdateQuantityTx sets quantity and recomputed total within a transaction
func (r *CartRepository) UpdateQuantityTx(ctx context.Context, tx *Transaction, cartItemID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $2, total_price = $2 * price_per_kg
		WHERE cart_item_id = $1
	`

	cmdTag, err := tx.tx.Exec(ctx, query, cartItemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("cart item not found")
	}

	return nil
}

// AdjustStockTx changes produce stock by delta within the same
// transaction as the cart change
func (r *CartRepository) AdjustStockTx(ctx context.Context, tx *Transaction, cropID uuid.UUID, delta int) error {
	query := `
		UPDATE produce
		SET quantity = quantity + $2,
		    status = CASE WHEN quantity + $2 > 0 THEN 'in_stock' ELSE 'out_of_stock' END,
		    updated_at = $3
		WHERE crop_id = $1 AND quantity + $2 >= 0
	`

	cmdTag, err := tx.tx.Exec(ctx, query, cropID, delta, time.Now())
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("insufficient stock")
	}

	return nil
}

// DeleteTx removes a cart row within a transaction
func (r *CartRepository) DeleteTx(ctx context.Context, tx *Transaction, cartItemID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_item_id = $1`

	cmdTag, err := tx.tx.Exec(ctx, query, cartItemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("cart item not found")
	}

	return nil
}

// Delete removes a cart row
func (r *CartRepository) Delete(ctx context.Context, cartItemID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_item_id = $1`

	cmdTag, err := r.pool.Exec(ctx, query, cartItemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("cart item not found")
	}

	return nil
}

// GetByRetailer retrieves the retailer's cart joined with listing and
// farmer details
func (r *CartRepository) GetByRetailer(ctx context.Context, retailerID uuid.UUID) ([]*domain.CartItemDetail, error) {
	query := `
		SELECT ci.cart_item_id, ci.retailer_id, ci.crop_id, ci.quantity, ci.price_per_kg, ci.total_price, ci.created_at,
		       p.crop_name, p.image_url, u.name
		FROM cart_items ci
		INNER JOIN produce p ON ci.crop_id = p.crop_id
		INNER JOIN profiles u ON p.farmer_id = u.user_id
		WHERE ci.retailer_id = $1
		ORDER BY ci.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, retailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	var items []*domain.CartItemDetail
	for rows.Next() {
		item := &domain.CartItemDetail{}
		err := rows.Scan(
			&item.CartItemID,
			&item.RetailerID,
			&item.CropID,
			&item.Quantity,
			&item.PricePerKg,
			&item.TotalPrice,
			&item.CreatedAt,
			&item.CropName,
			&item.CropImage,
			&item.FarmerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}
