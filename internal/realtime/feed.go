package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nammaraitha-backend/pkg/logger"
)

// Event types carried on the feed
const (
	EventMessageInserted = "message.inserted"
	EventNotification    = "notification"
)

// Event is one change-feed entry. Message events target a
// conversation channel; notification events target a user channel.
type Event struct {
	Type           string          `json:"type"`
	ConversationID uuid.UUID       `json:"conversation_id,omitempty"`
	UserID         uuid.UUID       `json:"user_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Feed is the realtime change feed. Subscriptions return a channel
// that closes after cancel; consumers own the cancel handle.
type Feed interface {
	Publish(ctx context.Context, event Event) error
	SubscribeConversation(ctx context.Context, conversationID uuid.UUID) (<-chan Event, CancelFunc, error)
	SubscribeUser(ctx context.Context, userID uuid.UUID) (<-chan Event, CancelFunc, error)
}

// RedisFeed implements Feed over Redis Pub/Sub
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed creates a Redis-backed feed
func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func conversationChannel(conversationID uuid.UUID) string {
	return fmt.Sprintf("chat:%s", conversationID)
}

func userChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:events", userID)
}

// Publish sends the event to its channel. Message events go to the
// conversation channel, everything else to the user channel.
func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var channel string
	switch event.Type {
	case EventMessageInserted:
		channel = conversationChannel(event.ConversationID)
	default:
		channel = userChannel(event.UserID)
	}

	if err := f.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// SubscribeConversation streams events for one conversation
func (f *RedisFeed) SubscribeConversation(ctx context.Context, conversationID uuid.UUID) (<-chan Event, CancelFunc, error) {
	return f.subscribe(ctx, conversationChannel(conversationID))
}

// SubscribeUser streams events addressed to one user
func (f *RedisFeed) SubscribeUser(ctx context.Context, userID uuid.UUID) (<-chan Event, CancelFunc, error) {
	return f.subscribe(ctx, userChannel(userID))
}

func (f *RedisFeed) subscribe(ctx context.Context, channel string) (<-chan Event, CancelFunc, error) {
	pubsub := f.client.Subscribe(ctx, channel)

	// Confirm the subscription before handing out the channel
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Warn("Dropping malformed feed event",
						zap.String("channel", channel),
						zap.Error(err))
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}

	return out, cancel, nil
}
