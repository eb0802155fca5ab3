package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
)

// MessageStore is the message persistence behind the chat service
type MessageStore interface {
	Save(message *domain.Message) error
	GetByConversation(conversationID uuid.UUID) ([]*domain.Message, error)
	CountUnreadFrom(conversationID, userID uuid.UUID) (int, error)
	MarkReadFrom(conversationID, userID uuid.UUID, at time.Time) error
}

// ConversationStore is the conversation metadata the chat service reads
// and keeps current
type ConversationStore interface {
	GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	UpdatePreview(ctx context.Context, conversationID, senderID uuid.UUID, preview string, at time.Time) error
	GetForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
}

// Translator renders authored text into the canonical storage language
type Translator interface {
	ToCanonical(ctx context.Context, text, authoredLang string) string
}

// Notifier fans out a new-message notification to the counterpart.
// Failures stay inside the implementation; sending never depends on it.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, recipientID, conversationID uuid.UUID, preview string)
}

// Service handles the server side of the negotiation chat: persisting
// messages, maintaining conversation previews and fanning out events.
type Service struct {
	messageRepo      MessageStore
	conversationRepo ConversationStore
	translator       Translator
	feed             realtime.Feed
	notifier         Notifier
}

// NewService creates a new chat service
func NewService(
	messageRepo MessageStore,
	conversationRepo ConversationStore,
	translator Translator,
	feed realtime.Feed,
	notifier Notifier,
) *Service {
	return &Service{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		translator:       translator,
		feed:             feed,
		notifier:         notifier,
	}
}

// SendMessageInput contains message data
type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	AuthoredLang   string // display language the text was typed in
}

// SendMessageOutput contains sent message info
type SendMessageOutput struct {
	Message *domain.MessageResponse
}

// SendMessage runs the outbound pipeline: translate the authored text
// to the canonical language, persist it, update the conversation
// preview, then publish on the change feed. Translation failure falls
// back to the authored original; persistence failure aborts before
// the preview is touched.
func (s *Service) SendMessage(ctx context.Context, input *SendMessageInput) (*SendMessageOutput, error) {
	if input.Content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	conversation, err := s.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found")
	}
	if conversation.FarmerID != input.SenderID && conversation.RetailerID != input.SenderID {
		metrics.ChatMessageSendUnauthorizedTotal.Inc()
		return nil, fmt.Errorf("not a participant")
	}

	// Reverse-translate into the storage language. ToCanonical never
	// errors; on total provider failure the authored text goes through.
	content := s.translator.ToCanonical(ctx, input.Content, input.AuthoredLang)

	message := &domain.Message{
		MessageID:      uuid.New(),
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	if err := s.messageRepo.Save(message); err != nil {
		metrics.ChatMessagePersistedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	metrics.ChatMessagePersistedTotal.WithLabelValues("success").Inc()

	preview := domain.TruncatePreview(content)
	if err := s.conversationRepo.UpdatePreview(ctx, input.ConversationID, input.SenderID, preview, message.CreatedAt); err != nil {
		// The message is already durable; a stale preview self-heals
		// on the next send.
		logger.Warn("Failed to update conversation preview",
			zap.String("conversation_id", input.ConversationID.String()),
			zap.Error(err))
	}

	s.publishMessage(ctx, message)

	recipientID := conversation.FarmerID
	if input.SenderID == conversation.FarmerID {
		recipientID = conversation.RetailerID
	}
	s.notifier.NotifyNewMessage(ctx, recipientID, input.ConversationID, preview)

	return &SendMessageOutput{Message: message.ToResponse()}, nil
}

func (s *Service) publishMessage(ctx context.Context, message *domain.Message) {
	payload, err := json.Marshal(message.ToResponse())
	if err != nil {
		logger.Error("Failed to marshal message for feed", zap.Error(err))
		return
	}

	event := realtime.Event{
		Type:           realtime.EventMessageInserted,
		ConversationID: message.ConversationID,
		Payload:        payload,
	}

	if err := s.feed.Publish(ctx, event); err != nil {
		metrics.ChatMessagePublishedTotal.WithLabelValues("error").Inc()
		logger.Warn("Failed to publish message event",
			zap.String("conversation_id", message.ConversationID.String()),
			zap.Error(err))
		return
	}
	metrics.ChatMessagePublishedTotal.WithLabelValues("success").Inc()
}

// GetMessages retrieves the full conversation history, newest first
func (s *Service) GetMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]*domain.MessageResponse, error) {
	isParticipant, err := s.conversationRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if !isParticipant {
		return nil, fmt.Errorf("not a participant")
	}

	messages, err := s.messageRepo.GetByConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	responses := make([]*domain.MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, message.ToResponse())
	}

	return responses, nil
}

// ListConversations returns the user's conversation list, most recent
// activity first, with per-conversation unread counts
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	summaries, err := s.conversationRepo.GetForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, summary := range summaries {
		count, err := s.messageRepo.CountUnreadFrom(summary.ConversationID, userID)
		if err != nil {
			logger.Warn("Failed to count unread messages",
				zap.String("conversation_id", summary.ConversationID.String()),
				zap.Error(err))
			continue
		}
		summary.UnreadCount = count
	}

	return summaries, nil
}

// MarkRead stamps read_at on every counterpart message in the
// conversation that the user has not read yet
func (s *Service) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	isParticipant, err := s.conversationRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to check participant: %w", err)
	}
	if !isParticipant {
		return fmt.Errorf("not a participant")
	}

	if err := s.messageRepo.MarkReadFrom(conversationID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}

	return nil
}
