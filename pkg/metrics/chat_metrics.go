package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat metrics for monitoring message lifecycle and real-time delivery
var (
	// Message lifecycle metrics
	ChatMessagePersistedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_message_persisted_total",
		Help: "Total number of messages persisted to Cassandra",
	}, []string{"status"})

	ChatMessagePublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_message_published_total",
		Help: "Total number of messages published to the realtime feed",
	}, []string{"status"})

	ChatSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_sync_total",
		Help: "Total number of chat session sync passes",
	}, []string{"status"})

	ChatTranslationFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_translation_fallback_total",
		Help: "Total number of translations that fell back to the original text",
	}, []string{"target_lang"})

	// Authorization metrics
	ChatMessageSendUnauthorizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_message_send_unauthorized_total",
		Help: "Total number of messages rejected due to unauthorized access",
	})

	ChatWebSocketConnectionUnauthorizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_websocket_connection_unauthorized_total",
		Help: "Total number of rejected WebSocket connections",
	})

	// Realtime feed metrics
	ChatRedisSubscriptionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_redis_subscription_active",
		Help: "Current number of active Redis subscriptions",
	})

	ChatClientMessageDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_client_message_dropped_total",
		Help: "Total number of messages dropped to clients",
	}, []string{"reason"})

	// WebSocket lifecycle metrics
	ChatWebSocketConnectionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_websocket_connection_total",
		Help: "Total number of WebSocket connections",
	}, []string{"status"})

	ChatWebSocketDisconnectionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_websocket_disconnection_total",
		Help: "Total number of WebSocket disconnections",
	}, []string{"reason"})

	ChatWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_websocket_connections",
		Help: "Current number of active WebSocket connections",
	})

	ChatWebSocketMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_websocket_messages_total",
		Help: "Total number of WebSocket messages",
	}, []string{"direction"}) // "in" for received, "out" for sent

	ChatWebSocketErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_websocket_errors_total",
		Help: "Total number of WebSocket errors",
	}, []string{"error_type"})
)
