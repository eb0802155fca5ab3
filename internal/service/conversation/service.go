package conversation

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

// ErrMissingKey is returned when any of the triple keys is absent;
// resolution must not proceed without all three.
var ErrMissingKey = errors.New("crop, farmer and retailer are all required")

// Store is the conversation persistence this service drives
type Store interface {
	GetByTriple(ctx context.Context, cropID, farmerID, retailerID uuid.UUID) (*domain.Conversation, error)
	GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error)
	Create(ctx context.Context, conversation *domain.Conversation) error
}

// Service resolves conversations by their (crop, farmer, retailer)
// triple, creating the thread on first contact.
type Service struct {
	conversationRepo Store
}

// NewService creates a new conversation service
func NewService(conversationRepo Store) *Service {
	return &Service{
		conversationRepo: conversationRepo,
	}
}

// Resolve finds the conversation for the exact triple, creating it
// with the initial preview when none exists. Sequential calls with
// the same triple return the same conversation.
//
// Two near-simultaneous first opens can both miss the lookup and each
// insert a row; there is no unique constraint on the triple. Accepted
// gap: the next lookup settles on one of them deterministically.
func (s *Service) Resolve(ctx context.Context, cropID, farmerID, retailerID uuid.UUID) (*domain.Conversation, error) {
	if cropID == uuid.Nil || farmerID == uuid.Nil || retailerID == uuid.Nil {
		return nil, ErrMissingKey
	}

	existing, err := s.conversationRepo.GetByTriple(ctx, cropID, farmerID, retailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		CropID:         cropID,
		FarmerID:       farmerID,
		RetailerID:     retailerID,
		LastMessage:    domain.InitialPreview,
		LastMessageAt:  now,
		CreatedAt:      now,
	}

	if err := s.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	logger.Info("Conversation created",
		zap.String("conversation_id", conversation.ConversationID.String()),
		zap.String("crop_id", cropID.String()))

	return conversation, nil
}

// GetByID retrieves a conversation, verifying the caller is a party
func (s *Service) GetByID(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found")
	}
	if conversation.FarmerID != userID && conversation.RetailerID != userID {
		return nil, fmt.Errorf("not a participant")
	}
	return conversation, nil
}
