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

// ProduceRepository handles crop listing persistence
type ProduceRepository struct {
	pool *pgxpool.Pool
}

// NewProduceRepository creates a new produce repository
func NewProduceRepository(pool *pgxpool.Pool) *ProduceRepository {
	return &ProduceRepository{pool: pool}
}

// Create inserts a new listing
func (r *ProduceRepository) Create(ctx context.Context, produce *domain.Produce) error {
	query := `
		INSERT INTO produce (
			crop_id, farmer_id, crop_name, quantity, price_per_kg, type, image_url, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		produce.CropID,
		produce.FarmerID,
		produce.CropName,
		produce.Quantity,
		produce.PricePerKg,
		produce.Type,
		produce.ImageURL,
		produce.Status,
		produce.CreatedAt,
		produce.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create produce: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by ID
func (r *ProduceRepository) GetByID(ctx context.Context, cropID uuid.UUID) (*domain.Produce, error) {
	query := `
		SELECT crop_id, farmer_id, crop_name, quantity, price_per_kg, type, image_url, status, created_at, updated_at
		FROM produce
		WHERE crop_id = $1
	`

	produce := &domain.Produce{}
	err := r.pool.QueryRow(ctx, query, cropID).Scan(
		&produce.CropID,
		&produce.FarmerID,
		&produce.CropName,
		&produce.Quantity,
		&produce.PricePerKg,
		&produce.Type,
		&produce.ImageURL,
		&produce.Status,
		&produce.CreatedAt,
		&produce.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get produce: %w", err)
	}

	return produce, nil
}

// GetByFarmer retrieves a farmer's own listings, newest first
func (r *ProduceRepository) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*domain.Produce, error) {
	query := `
		SELECT crop_id, farmer_id, crop_name, quantity, price_per_kg, type, image_url, status, created_at, updated_at
		FROM produce
		WHERE farmer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get farmer produce: %w", err)
	}
	defer rows.Close()

	var listings []*domain.Produce
	for rows.Next() {
		produce := &domain.Produce{}
		err := rows.Scan(
			&produce.CropID,
			&produce.FarmerID,
			&produce.CropName,
			&produce.Quantity,
			&produce.PricePerKg,
			&produce.Type,
			&produce.ImageURL,
			&produce.Status,
			&produce.CreatedAt,
			&produce.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan produce: %w", err)
		}
		listings = append(listings, produce)
	}

	return listings, nil
}

// GetAvailable retrieves in-stock listings for the retailer catalog,
// joined with the farmer's name
func (r *ProduceRepository) GetAvailable(ctx context.Context, limit, offset int) ([]*domain.ProduceWithFarmer, error) {
	query := `
		SELECT p.crop_id, p.farmer_id, p.crop_name, p.quantity, p.price_per_kg, p.type, p.image_url, p.status, p.created_at, p.updated_at,
		       u.name
		FROM produce p
		INNER JOIN profiles u ON p.farmer_id = u.user_id
		WHERE p.status = 'in_stock'
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get available produce: %w", err)
	}
	defer rows.Close()

	var listings []*domain.ProduceWithFarmer
	for rows.Next() {
		item := &domain.ProduceWithFarmer{}
		err := rows.Scan(
			&item.CropID,
			&item.FarmerID,
			&item.CropName,
			&item.Quantity,
			&item.PricePerKg,
			&item.Type,
			&item.ImageURL,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.FarmerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan produce: %w", err)
		}
		listings = append(listings, item)
	}

	return listings, nil
}

// Update applies a partial update and re-derives the stock status
func (r *ProduceRepository) Update(ctx context.Context, cropID uuid.UUID, update *domain.ProduceUpdate) error {
	query := `
		UPDATE produce
		SET quantity = COALESCE($2, quantity),
		    price_per_kg = COALESCE($3, price_per_kg),
		    image_url = COALESCE($4, image_url),
		    status = CASE WHEN COALESCE($2, quantity) > 0 THEN 'in_stock' ELSE 'out_of_stock' END,
		    updated_at = $5
		WHERE crop_id = $1
	`

	cmdTag, err := r.pool.Exec(ctx, query, cropID, update.Quantity, update.PricePerKg, update.ImageURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update produce: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("produce not found")
	}

	return nil
}

// AdjustQuantity changes stock by delta (negative reserves, positive
// restores) and re-derives the status in the same statement
func (r *ProduceRepository) AdjustQuantity(ctx context.Context, cropID uuid.UUID, delta int) error {
	query := `
		UPDATE produce
		SET quantity = quantity + $2,
		    status = CASE WHEN quantity + $2 > 0 THEN 'in_stock' ELSE 'out_of_stock' END,
		    updated_at = $3
		WHERE crop_id = $1 AND quantity + $2 >= 0
	`

	cmdTag, err := r.pool.Exec(ctx, query, cropID, delta, time.Now())
	if err != nil {
		return fmt.Errorf("failed to adjust quantity: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("insufficient stock")
	}

	return nil
}

// Delete removes a listing
func (r *ProduceRepository) Delete(ctx context.Context, cropID uuid.UUID) error {
	query := `DELETE FROM produce WHERE crop_id = $1`

	cmdTag, err := r.pool.Exec(ctx, query, cropID)
	if err != nil {
		return fmt.Errorf("failed to delete produce: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("produce not found")
	}

	return nil
}
