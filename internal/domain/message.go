package domain

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalLanguage is the language all messages are stored in.
// Outbound text is translated into it before persisting; inbound text
// is translated out of it for display.
const CanonicalLanguage = "en"

// SupportedLanguages are the display languages offered in chat.
var SupportedLanguages = []string{"en", "kn", "hi", "te", "ta"}

// Message represents a chat message entity
// Maps to Cassandra messages table; content is always canonical-language text
type Message struct {
	MessageID      uuid.UUID  `json:"message_id" cql:"message_id"`
	ConversationID uuid.UUID  `json:"conversation_id" cql:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id" cql:"sender_id"`
	Content        string     `json:"content" cql:"content"`
	CreatedAt      time.Time  `json:"created_at" cql:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty" cql:"read_at"`
}

// MessageCreate represents data needed to send a message
type MessageCreate struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
	Content        string    `json:"content" binding:"required"`
}

// MessageResponse represents the message returned to clients
type MessageResponse struct {
	MessageID      uuid.UUID  `json:"message_id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// ToResponse converts Message to MessageResponse
func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		MessageID:      m.MessageID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		ReadAt:         m.ReadAt,
	}
}
