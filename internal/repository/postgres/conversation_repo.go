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

// ConversationRepository handles conversation metadata persistence
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Create inserts a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	query := `
		INSERT INTO conversations (
			conversation_id, crop_id, farmer_id, retailer_id, last_message, last_sender_id, last_message_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		conversation.ConversationID,
		conversation.CropID,
		conversation.FarmerID,
		conversation.RetailerID,
		conversation.LastMessage,
		conversation.LastSenderID,
		conversation.LastMessageAt,
		conversation.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, crop_id, farmer_id, retailer_id, last_message, last_sender_id, last_message_at, created_at
		FROM conversations
		WHERE conversation_id = $1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ConversationID,
		&conversation.CropID,
		&conversation.FarmerID,
		&conversation.RetailerID,
		&conversation.LastMessage,
		&conversation.LastSenderID,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conversation, nil
}

// GetByTriple finds the conversation for an exact (crop, farmer,
// retailer) combination. Returns nil when none exists.
func (r *ConversationRepository) GetByTriple(ctx context.Context, cropID, farmerID, retailerID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, crop_id, farmer_id, retailer_id, last_message, last_sender_id, last_message_at, created_at
		FROM conversations
		WHERE crop_id = $1 AND farmer_id = $2 AND retailer_id = $3
		ORDER BY created_at, conversation_id
		LIMIT 1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, cropID, farmerID, retailerID).Scan(
		&conversation.ConversationID,
		&conversation.CropID,
		&conversation.FarmerID,
		&conversation.RetailerID,
		&conversation.LastMessage,
		&conversation.LastSenderID,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	return conversation, nil
}

// UpdatePreview stores the latest message preview and sender
func (r *ConversationRepository) UpdatePreview(ctx context.Context, conversationID, senderID uuid.UUID, preview string, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message = $2, last_sender_id = $3, last_message_at = $4
		WHERE conversation_id = $1
	`

	cmdTag, err := r.pool.Exec(ctx, query, conversationID, preview, senderID, at)
	if err != nil {
		return fmt.Errorf("failed to update preview: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("conversation not found")
	}

	return nil
}

// GetForUser retrieves every conversation the user takes part in,
// most recent activity first, joined with crop and counterpart info
func (r *ConversationRepository) GetForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	query := `
		SELECT c.conversation_id, c.crop_id, p.crop_name, p.image_url,
		       u.user_id, u.name, c.last_message, c.last_message_at
		FROM conversations c
		INNER JOIN produce p ON c.crop_id = p.crop_id
		INNER JOIN profiles u
			ON u.user_id = CASE WHEN c.farmer_id = $1 THEN c.retailer_id ELSE c.farmer_id END
		WHERE c.farmer_id = $1 OR c.retailer_id = $1
		ORDER BY c.last_message_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user conversations: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.ConversationSummary
	for rows.Next() {
		summary := &domain.ConversationSummary{}
		err := rows.Scan(
			&summary.ConversationID,
			&summary.CropID,
			&summary.CropName,
			&summary.CropImageURL,
			&summary.CounterpartID,
			&summary.CounterpartName,
			&summary.LastMessage,
			&summary.LastMessageAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetIDsForUser retrieves the IDs of all conversations the user takes part in
func (r *ConversationRepository) GetIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT conversation_id FROM conversations
		WHERE farmer_id = $1 OR retailer_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// IsParticipant checks whether the user is one of the two parties
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM conversations
			WHERE conversation_id = $1 AND (farmer_id = $2 OR retailer_id = $2)
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return exists, nil
}
