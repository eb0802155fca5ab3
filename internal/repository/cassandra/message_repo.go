package cassandra

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/metrics"
)

// MessageRepository handles message storage in Cassandra.
// The messages table clusters on created_at DESC, so reads come back
// newest first without re-sorting.
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

// Save inserts a new message
func (r *MessageRepository) Save(message *domain.Message) error {
	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			conversation_id, created_at, message_id, sender_id, content, read_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	start := time.Now()
	err := r.session.Query(query,
		message.ConversationID,
		message.CreatedAt,
		message.MessageID,
		message.SenderID,
		message.Content,
		message.ReadAt,
	).Exec()
	metrics.RecordCassandraQueryDuration("insert", "messages", time.Since(start).Seconds())

	if err != nil {
		metrics.RecordCassandraQuery("insert", "messages", "error")
		return fmt.Errorf("failed to save message: %w", err)
	}

	metrics.RecordCassandraQuery("insert", "messages", "success")
	return nil
}

// GetByConversation retrieves the conversation history, newest first
func (r *MessageRepository) GetByConversation(conversationID uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT conversation_id, created_at, message_id, sender_id, content, read_at
		FROM messages
		WHERE conversation_id = ?
	`

	iter := r.session.Query(query, conversationID).Iter()

	var messages []*domain.Message
	for {
		message := &domain.Message{}
		var readAt time.Time
		if !iter.Scan(
			&message.ConversationID,
			&message.CreatedAt,
			&message.MessageID,
			&message.SenderID,
			&message.Content,
			&readAt,
		) {
			break
		}
		if !readAt.IsZero() {
			message.ReadAt = &readAt
		}
		messages = append(messages, message)
	}

	if err := iter.Close(); err != nil {
		metrics.RecordCassandraQuery("select", "messages", "error")
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	metrics.RecordCassandraQuery("select", "messages", "success")
	return messages, nil
}

// CountUnreadFrom counts messages in the conversation that were sent
// by someone other than userID and not yet read. Filtering happens
// client-side since neither column is part of the primary key.
func (r *MessageRepository) CountUnreadFrom(conversationID, userID uuid.UUID) (int, error) {
	query := `
		SELECT sender_id, read_at
		FROM messages
		WHERE conversation_id = ?
	`

	iter := r.session.Query(query, conversationID).Iter()

	count := 0
	var senderID uuid.UUID
	var readAt time.Time
	for iter.Scan(&senderID, &readAt) {
		if senderID != userID && readAt.IsZero() {
			count++
		}
	}

	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return count, nil
}

// MarkReadFrom stamps read_at on every unread message in the
// conversation that userID did not send. Cassandra updates need the
// full primary key, so unread rows are collected first and updated
// one by one.
func (r *MessageRepository) MarkReadFrom(conversationID, userID uuid.UUID, at time.Time) error {
	query := `
		SELECT created_at, message_id, sender_id, read_at
		FROM messages
		WHERE conversation_id = ?
	`

	iter := r.session.Query(query, conversationID).Iter()

	type key struct {
		createdAt time.Time
		messageID uuid.UUID
	}
	var unread []key

	var createdAt, readAt time.Time
	var messageID, senderID uuid.UUID
	for iter.Scan(&createdAt, &messageID, &senderID, &readAt) {
		if senderID != userID && readAt.IsZero() {
			unread = append(unread, key{createdAt: createdAt, messageID: messageID})
		}
	}

	if err := iter.Close(); err != nil {
		return fmt.Errorf("failed to scan unread messages: %w", err)
	}

	update := `
		UPDATE messages SET read_at = ?
		WHERE conversation_id = ? AND created_at = ? AND message_id = ?
	`

	for _, k := range unread {
		if err := r.session.Query(update, at, conversationID, k.createdAt, k.messageID).Exec(); err != nil {
			return fmt.Errorf("failed to mark message read: %w", err)
		}
	}

	return nil
}
