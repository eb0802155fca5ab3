package domain

import (
	"time"

	"github.com/google/uuid"
)

// InitialPreview is the preview text a conversation starts with,
// before any message is sent.
const InitialPreview = "Conversation started"

// PreviewMaxLen is the longest preview stored on a conversation;
// longer message bodies are truncated with an ellipsis.
const PreviewMaxLen = 50

// Conversation represents a negotiation thread between a farmer and a
// retailer about one crop listing.
// Maps to PostgreSQL conversations table
type Conversation struct {
	ConversationID uuid.UUID  `json:"conversation_id" db:"conversation_id"`
	CropID         uuid.UUID  `json:"crop_id" db:"crop_id"`
	FarmerID       uuid.UUID  `json:"farmer_id" db:"farmer_id"`
	RetailerID     uuid.UUID  `json:"retailer_id" db:"retailer_id"`
	LastMessage    string     `json:"last_message" db:"last_message"`
	LastSenderID   *uuid.UUID `json:"last_sender_id,omitempty" db:"last_sender_id"`
	LastMessageAt  time.Time  `json:"last_message_at" db:"last_message_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// ConversationResolve identifies the thread to open: the crop listing
// plus both parties. All three are required.
type ConversationResolve struct {
	CropID     uuid.UUID `json:"crop_id" binding:"required"`
	FarmerID   uuid.UUID `json:"farmer_id" binding:"required"`
	RetailerID uuid.UUID `json:"retailer_id" binding:"required"`
}

// ConversationSummary is one row of a user's conversation list,
// joined with crop and counterpart info.
type ConversationSummary struct {
	ConversationID  uuid.UUID `json:"conversation_id"`
	CropID          uuid.UUID `json:"crop_id"`
	CropName        string    `json:"crop_name"`
	CropImageURL    *string   `json:"crop_image_url,omitempty"`
	CounterpartID   uuid.UUID `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name"`
	LastMessage     string    `json:"last_message"`
	LastMessageAt   time.Time `json:"last_message_at"`
	UnreadCount     int       `json:"unread_count"`
}

// TruncatePreview shortens text to the stored preview form.
func TruncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewMaxLen {
		return text
	}
	return string(runes[:PreviewMaxLen]) + "..."
}
