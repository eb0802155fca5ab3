package produce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/logger"
)

// ErrNotOwner is returned when a farmer touches a listing they do not own
var ErrNotOwner = errors.New("listing belongs to another farmer")

// Repository interface
type Repository interface {
	Create(ctx context.Context, produce *domain.Produce) error
	GetByID(ctx context.Context, cropID uuid.UUID) (*domain.Produce, error)
	GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*domain.Produce, error)
	GetAvailable(ctx context.Context, limit, offset int) ([]*domain.ProduceWithFarmer, error)
	Update(ctx context.Context, cropID uuid.UUID, update *domain.ProduceUpdate) error
	Delete(ctx context.Context, cropID uuid.UUID) error
}

// ImageStore removes stored listing images when a listing goes away
type ImageStore interface {
	DeleteByURL(ctx context.Context, imageURL string) error
}

// Service handles crop listings
type Service struct {
	repo   Repository
	images ImageStore
}

// NewService creates a new produce service
func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

// Create publishes a new listing owned by the farmer
func (s *Service) Create(ctx context.Context, farmerID uuid.UUID, input *domain.ProduceCreate) (*domain.Produce, error) {
	now := time.Now()
	produce := &domain.Produce{
		CropID:     uuid.New(),
		FarmerID:   farmerID,
		CropName:   input.CropName,
		Quantity:   input.Quantity,
		PricePerKg: input.PricePerKg,
		Type:       input.Type,
		ImageURL:   input.ImageURL,
		Status:     domain.StatusForQuantity(input.Quantity),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, produce); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	logger.Info("Listing created",
		zap.String("crop_id", produce.CropID.String()),
		zap.String("crop_name", produce.CropName))

	return produce, nil
}

// GetByFarmer returns the farmer's own listings, newest first
func (s *Service) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*domain.Produce, error) {
	listings, err := s.repo.GetByFarmer(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	return listings, nil
}

// GetAvailable returns in-stock listings for the retailer catalog
func (s *Service) GetAvailable(ctx context.Context, limit, offset int) ([]*domain.ProduceWithFarmer, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	listings, err := s.repo.GetAvailable(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	return listings, nil
}

// GetByID retrieves one listing
func (s *Service) GetByID(ctx context.Context, cropID uuid.UUID) (*domain.Produce, error) {
	produce, err := s.repo.GetByID(ctx, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if produce == nil {
		return nil, fmt.Errorf("listing not found")
	}
	return produce, nil
}

// Update applies a partial update; only the owning farmer may update
func (s *Service) Update(ctx context.Context, farmerID, cropID uuid.UUID, update *domain.ProduceUpdate) (*domain.Produce, error) {
	produce, err := s.GetByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if produce.FarmerID != farmerID {
		return nil, ErrNotOwner
	}

	if err := s.repo.Update(ctx, cropID, update); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return s.GetByID(ctx, cropID)
}

// Delete removes a listing and its stored image; only the owner may delete
func (s *Service) Delete(ctx context.Context, farmerID, cropID uuid.UUID) error {
	produce, err := s.GetByID(ctx, cropID)
	if err != nil {
		return err
	}
	if produce.FarmerID != farmerID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, cropID); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	if produce.ImageURL != nil && s.images != nil {
		if err := s.images.DeleteByURL(ctx, *produce.ImageURL); err != nil {
			// The row is gone; an orphaned object is tolerable
			logger.Warn("Failed to delete listing image",
				zap.String("crop_id", cropID.String()),
				zap.Error(err))
		}
	}

	return nil
}
