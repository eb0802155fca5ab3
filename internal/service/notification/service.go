package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/internal/repository/cassandra"
	"nammaraitha-backend/internal/repository/postgres"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/push"
)

// Service handles notifications, their push fan-out and the two
// dashboard unread counters.
type Service struct {
	notificationRepo *postgres.NotificationRepository
	conversationRepo *postgres.ConversationRepository
	messageRepo      *cassandra.MessageRepository
	tokenRepo        push.TokenRepository
	pushProvider     push.Provider
	feed             realtime.Feed
}

// NewService creates a new notification service
func NewService(
	notificationRepo *postgres.NotificationRepository,
	conversationRepo *postgres.ConversationRepository,
	messageRepo *cassandra.MessageRepository,
	tokenRepo push.TokenRepository,
	pushProvider push.Provider,
	feed realtime.Feed,
) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		tokenRepo:        tokenRepo,
		pushProvider:     pushProvider,
		feed:             feed,
	}
}

// CreateNotificationInput represents input for creating a notification
type CreateNotificationInput struct {
	UserID uuid.UUID
	Type   string
	Title  string
	Body   string
	Data   map[string]interface{}
}

// Create persists a notification, publishes it on the user's feed
// channel and relays it to the user's devices. Push and feed failures
// are logged, never surfaced: the row is the source of truth.
func (s *Service) Create(ctx context.Context, input *CreateNotificationInput) (*domain.Notification, error) {
	notification := &domain.Notification{
		NotificationID: uuid.New(),
		UserID:         input.UserID,
		Type:           input.Type,
		Title:          input.Title,
		Body:           input.Body,
		Data:           input.Data,
		CreatedAt:      time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.publish(ctx, notification)
	s.sendPush(ctx, notification)

	return notification, nil
}

func (s *Service) publish(ctx context.Context, notification *domain.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		logger.Error("Failed to marshal notification for feed", zap.Error(err))
		return
	}

	event := realtime.Event{
		Type:    realtime.EventNotification,
		UserID:  notification.UserID,
		Payload: payload,
	}

	if err := s.feed.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish notification event",
			zap.String("user_id", notification.UserID.String()),
			zap.Error(err))
	}
}

func (s *Service) sendPush(ctx context.Context, notification *domain.Notification) {
	if s.pushProvider == nil {
		return
	}

	tokens, err := s.tokenRepo.GetByUserID(ctx, notification.UserID)
	if err != nil {
		logger.Warn("Failed to load push tokens",
			zap.String("user_id", notification.UserID.String()),
			zap.Error(err))
		return
	}

	var active []string
	for _, token := range tokens {
		if token.Active {
			active = append(active, token.Token)
		}
	}
	if len(active) == 0 {
		return
	}

	data := make(map[string]string, len(notification.Data))
	for k, v := range notification.Data {
		data[k] = fmt.Sprint(v)
	}

	result, err := s.pushProvider.Send(ctx, &push.Notification{
		Title: notification.Title,
		Body:  notification.Body,
		Data:  data,
		Sound: "default",
	}, active)
	if err != nil {
		logger.Warn("Push delivery failed",
			zap.String("user_id", notification.UserID.String()),
			zap.Error(err))
		return
	}

	if err := s.notificationRepo.MarkPushed(ctx, notification.NotificationID); err != nil {
		logger.Warn("Failed to mark notification pushed", zap.Error(err))
	}

	logger.Debug("Push delivered",
		zap.String("user_id", notification.UserID.String()),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount))
}

// NotifyNewMessage fans out a chat notification to the counterpart.
// Implements the chat service's Notifier; failures never propagate
// back into the send pipeline.
func (s *Service) NotifyNewMessage(ctx context.Context, recipientID, conversationID uuid.UUID, preview string) {
	_, err := s.Create(ctx, &CreateNotificationInput{
		UserID: recipientID,
		Type:   domain.NotificationTypeMessage,
		Title:  "New Message",
		Body:   preview,
		Data: map[string]interface{}{
			"conversation_id": conversationID.String(),
		},
	})
	if err != nil {
		logger.Warn("Failed to create message notification",
			zap.String("recipient_id", recipientID.String()),
			zap.Error(err))
	}
}

// GetNotifications retrieves a user's notifications, newest first
func (s *Service) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	notifications, err := s.notificationRepo.GetByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	return notifications, nil
}

// CountUnreadMessages recomputes the unread-message badge from
// scratch: every conversation the user is party to, counting
// counterpart messages without a read stamp.
func (s *Service) CountUnreadMessages(ctx context.Context, userID uuid.UUID) (int, error) {
	conversationIDs, err := s.conversationRepo.GetIDsForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get conversations: %w", err)
	}

	total := 0
	for _, conversationID := range conversationIDs {
		count, err := s.messageRepo.CountUnreadFrom(conversationID, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to count unread messages: %w", err)
		}
		total += count
	}

	return total, nil
}

// GetUnreadCounts returns both dashboard badges in one call
func (s *Service) GetUnreadCounts(ctx context.Context, userID uuid.UUID) (*domain.UnreadCounts, error) {
	messages, err := s.CountUnreadMessages(ctx, userID)
	if err != nil {
		return nil, err
	}

	notifications, err := s.notificationRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &domain.UnreadCounts{
		Messages:      messages,
		Notifications: notifications,
	}, nil
}

// MarkAsRead marks one notification as read
func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.notificationRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead resets the notification badge
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notificationRepo.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// RegisterPushToken stores a device token for the user
func (s *Service) RegisterPushToken(ctx context.Context, userID uuid.UUID, tokenStr string, tokenType push.TokenType) error {
	token := &push.Token{
		UserID: userID,
		Token:  tokenStr,
		Type:   tokenType,
		Active: true,
	}
	if err := s.tokenRepo.Store(ctx, token); err != nil {
		return fmt.Errorf("failed to store push token: %w", err)
	}
	return nil
}
