package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
)

// ParticipantChecker verifies conversation membership before upgrading
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

// ChatHub manages WebSocket connections for chat, bridging feed events
// to the clients watching each conversation.
type ChatHub struct {
	feed         realtime.Feed
	participants ParticipantChecker

	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversationRoom

	register   chan *Client
	unregister chan *Client
}

// conversationRoom groups the clients of one conversation with the
// feed subscription that drives them.
type conversationRoom struct {
	clients map[*Client]bool
	cancel  realtime.CancelFunc
}

// Client represents a WebSocket client
type Client struct {
	hub            *ChatHub
	conn           *websocket.Conn
	send           chan []byte
	userID         uuid.UUID
	conversationID uuid.UUID
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev, restrict in production
	},
}

// NewChatHub creates a new chat hub
func NewChatHub(feed realtime.Feed, participants ParticipantChecker) *ChatHub {
	hub := &ChatHub{
		feed:          feed,
		participants:  participants,
		conversations: make(map[uuid.UUID]*conversationRoom),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
	}

	go hub.run()

	return hub
}

// run handles hub registration and teardown
func (h *ChatHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.conversations[client.conversationID]
			if !ok {
				room = &conversationRoom{clients: make(map[*Client]bool)}
				h.conversations[client.conversationID] = room

				events, cancel, err := h.feed.SubscribeConversation(context.Background(), client.conversationID)
				if err != nil {
					logger.Error("Failed to subscribe to conversation feed",
						zap.String("conversation_id", client.conversationID.String()),
						zap.Error(err))
				} else {
					room.cancel = cancel
					metrics.ChatRedisSubscriptionActive.Inc()
					go h.relay(client.conversationID, events)
				}
			}
			room.clients[client] = true
			h.mu.Unlock()

			metrics.ChatWebSocketConnections.Inc()
			metrics.ChatWebSocketConnectionTotal.WithLabelValues("accepted").Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.conversations[client.conversationID]; ok {
				if _, exists := room.clients[client]; exists {
					delete(room.clients, client)
					close(client.send)
					metrics.ChatWebSocketConnections.Dec()
					metrics.ChatWebSocketDisconnectionTotal.WithLabelValues("client_closed").Inc()

					if len(room.clients) == 0 {
						if room.cancel != nil {
							room.cancel()
							metrics.ChatRedisSubscriptionActive.Dec()
						}
						delete(h.conversations, client.conversationID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// relay forwards feed events for one conversation to its clients.
// It exits when the subscription channel closes.
func (h *ChatHub) relay(conversationID uuid.UUID, events <-chan realtime.Event) {
	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Error("Failed to encode feed event", zap.Error(err))
			continue
		}

		h.mu.RLock()
		room, ok := h.conversations[conversationID]
		if ok {
			for client := range room.clients {
				select {
				case client.send <- payload:
					metrics.ChatWebSocketMessagesTotal.WithLabelValues("out").Inc()
				default:
					// Slow consumer, drop rather than block the room
					metrics.ChatClientMessageDroppedTotal.WithLabelValues("slow_consumer").Inc()
				}
			}
		}
		h.mu.RUnlock()
	}
}

// ServeWS handles WebSocket requests
// GET /v1/ws/chat?conversation_id=...
func (h *ChatHub) ServeWS(c *gin.Context) {
	conversationIDStr := c.Query("conversation_id")
	if conversationIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id required"})
		return
	}

	conversationID, err := uuid.Parse(conversationIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}

	userIDVal, exists := c.Get("user_id")
	if !exists {
		metrics.ChatWebSocketConnectionUnauthorizedTotal.Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return
	}

	isParticipant, err := h.participants.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !isParticipant {
		metrics.ChatWebSocketConnectionUnauthorizedTotal.Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		metrics.ChatWebSocketConnectionTotal.WithLabelValues("upgrade_failed").Inc()
		return
	}

	client := &Client{
		hub:            h,
		conn:           conn,
		send:           make(chan []byte, 256),
		userID:         userID,
		conversationID: conversationID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. Inbound frames only keep the
// connection alive; messages are sent over the HTTP API.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.ChatWebSocketErrorsTotal.WithLabelValues("read").Inc()
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			break
		}
		metrics.ChatWebSocketMessagesTotal.WithLabelValues("in").Inc()
	}
}

// writePump writes messages to WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
