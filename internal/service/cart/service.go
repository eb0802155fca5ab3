package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/repository/postgres"
	"nammaraitha-backend/pkg/logger"
)

// Service handles the retailer cart. Quantity changes and produce
// stock adjustments always move together in one transaction.
type Service struct {
	cartRepo    *postgres.CartRepository
	produceRepo *postgres.ProduceRepository
}

// NewService creates a new cart service
func NewService(cartRepo *postgres.CartRepository, produceRepo *postgres.ProduceRepository) *Service {
	return &Service{
		cartRepo:    cartRepo,
		produceRepo: produceRepo,
	}
}

// Add puts a listing in the cart. A listing already in the cart gets
// its quantity bumped by one; otherwise a row is created with
// quantity 1 at the listing's current price.
func (s *Service) Add(ctx context.Context, retailerID, cropID uuid.UUID) (*domain.CartItem, error) {
	produce, err := s.produceRepo.GetByID(ctx, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if produce == nil {
		return nil, fmt.Errorf("listing not found")
	}
	if produce.Quantity < 1 {
		return nil, fmt.Errorf("out of stock")
	}

	existing, err := s.cartRepo.GetByRetailerAndCrop(ctx, retailerID, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}
	if existing != nil {
		return s.SetQuantity(ctx, retailerID, existing.CartItemID, existing.Quantity+1)
	}

	item := &domain.CartItem{
		CartItemID: uuid.New(),
		RetailerID: retailerID,
		CropID:     cropID,
		Quantity:   1,
		PricePerKg: produce.PricePerKg,
		TotalPrice: produce.PricePerKg,
		CreatedAt:  time.Now(),
	}

	if err := s.cartRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	if err := s.produceRepo.AdjustQuantity(ctx, cropID, -1); err != nil {
		// Roll the cart row back rather than leave phantom stock
		if delErr := s.cartRepo.Delete(ctx, item.CartItemID); delErr != nil {
			logger.Error("Failed to roll back cart item",
				zap.String("cart_item_id", item.CartItemID.String()),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	return item, nil
}

// SetQuantity changes an item's quantity, adjusting produce stock by
// the delta in the same transaction. Quantities below 1 remove the
// row and restore all reserved stock.
func (s *Service) SetQuantity(ctx context.Context, retailerID, cartItemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	item, err := s.cartRepo.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("cart item not found")
	}
	if item.RetailerID != retailerID {
		return nil, fmt.Errorf("cart item belongs to another retailer")
	}

	if quantity < 1 {
		if err := s.Remove(ctx, retailerID, cartItemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	delta := quantity - item.Quantity
	if delta == 0 {
		return item, nil
	}

	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Reserving more stock subtracts from produce, releasing adds back
	if err := s.cartRepo.AdjustStockTx(ctx, tx, item.CropID, -delta); err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpdateQuantityTx(ctx, tx, cartItemID, quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	item.Quantity = quantity
	item.TotalPrice = float64(quantity) * item.PricePerKg
	return item, nil
}

// Remove deletes a cart row and restores the reserved stock
func (s *Service) Remove(ctx context.Context, retailerID, cartItemID uuid.UUID) error {
	item, err := s.cartRepo.GetByID(ctx, cartItemID)
	if err != nil {
		return fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("cart item not found")
	}
	if item.RetailerID != retailerID {
		return fmt.Errorf("cart item belongs to another retailer")
	}

	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.cartRepo.AdjustStockTx(ctx, tx, item.CropID, item.Quantity); err != nil {
		return err
	}
	if err := s.cartRepo.DeleteTx(ctx, tx, cartItemID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart removal: %w", err)
	}

	return nil
}

// Get returns the full cart with its grand total
func (s *Service) Get(ctx context.Context, retailerID uuid.UUID) (*domain.CartSummary, error) {
	items, err := s.cartRepo.GetByRetailer(ctx, retailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	summary := &domain.CartSummary{Items: make([]domain.CartItemDetail, 0, len(items))}
	for _, item := range items {
		summary.Items = append(summary.Items, *item)
		summary.Total += item.TotalPrice
	}

	return summary, nil
}
