package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/internal/service/chatsession"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
)

// ConversationGetter loads a conversation, verifying the caller is a
// party to it
type ConversationGetter interface {
	GetByID(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error)
}

// SessionHandler serves the per-screen chat session over WebSocket:
// each connection owns a synchronizer session and its polling driver,
// and streams the rendered view to the client. Inbound frames carry
// send and language-change commands.
type SessionHandler struct {
	backend       chatsession.Backend
	conversations ConversationGetter
	translator    chatsession.DisplayTranslator
	feed          realtime.Feed
	interval      time.Duration
}

// NewSessionHandler creates a session handler
func NewSessionHandler(
	backend chatsession.Backend,
	conversations ConversationGetter,
	translator chatsession.DisplayTranslator,
	feed realtime.Feed,
) *SessionHandler {
	return &SessionHandler{
		backend:       backend,
		conversations: conversations,
		translator:    translator,
		feed:          feed,
		interval:      chatsession.DefaultPollInterval,
	}
}

// sessionCommand is one inbound client frame
type sessionCommand struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
}

// sessionFrame is one outbound frame
type sessionFrame struct {
	Type     string                       `json:"type"`
	Messages []chatsession.DisplayMessage `json:"messages,omitempty"`
	Error    string                       `json:"error,omitempty"`
}

// ServeSession opens a chat session for one conversation screen
// GET /v1/ws/sessions?conversation_id=...&lang=...
func (h *SessionHandler) ServeSession(c *gin.Context) {
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

	lang := c.Query("lang")
	if lang == "" {
		lang = domain.CanonicalLanguage
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

	conversation, err := h.conversations.GetByID(c.Request.Context(), conversationID, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not a participant") {
			metrics.ChatWebSocketConnectionUnauthorizedTotal.Inc()
			c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		metrics.ChatWebSocketConnectionTotal.WithLabelValues("upgrade_failed").Inc()
		return
	}

	session := chatsession.NewSession(conversation, userID, h.backend, h.translator, lang)

	sc := &sessionConn{
		conn: conn,
		send: make(chan []byte, 16),
	}
	session.SetOnUpdate(func(view []chatsession.DisplayMessage) {
		sc.push(sessionFrame{Type: "sync", Messages: view})
	})

	driver := chatsession.NewDriver(session, h.feed, h.interval)
	if err := driver.Start(context.Background()); err != nil {
		logger.Error("Failed to start session driver",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err))
		conn.Close()
		return
	}

	metrics.ChatWebSocketConnections.Inc()
	metrics.ChatWebSocketConnectionTotal.WithLabelValues("accepted").Inc()

	go sc.writeLoop()
	sc.readLoop(session, driver)
}

// sessionConn carries an upgraded connection and its outbound queue
type sessionConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// push queues an outbound frame, dropping it if the client is slow.
// Late frames from a torn-down session are discarded.
func (sc *sessionConn) push(frame sessionFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to encode session frame", zap.Error(err))
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return
	}
	select {
	case sc.send <- payload:
		metrics.ChatWebSocketMessagesTotal.WithLabelValues("out").Inc()
	default:
		metrics.ChatClientMessageDroppedTotal.WithLabelValues("slow_consumer").Inc()
	}
}

// close shuts the outbound queue exactly once
func (sc *sessionConn) close() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return
	}
	sc.closed = true
	close(sc.send)
}

// readLoop dispatches inbound commands until the client disconnects,
// then tears the driver and session down
func (sc *sessionConn) readLoop(session *chatsession.Session, driver *chatsession.Driver) {
	defer func() {
		driver.Stop()
		sc.close()
		sc.conn.Close()
		metrics.ChatWebSocketConnections.Dec()
		metrics.ChatWebSocketDisconnectionTotal.WithLabelValues("client_closed").Inc()
	}()

	sc.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	sc.conn.SetPongHandler(func(string) error {
		sc.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := sc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.ChatWebSocketErrorsTotal.WithLabelValues("read").Inc()
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		metrics.ChatWebSocketMessagesTotal.WithLabelValues("in").Inc()
		sc.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var command sessionCommand
		if err := json.Unmarshal(payload, &command); err != nil {
			sc.push(sessionFrame{Type: "error", Error: "invalid frame"})
			continue
		}

		switch command.Type {
		case "send":
			if err := session.Send(context.Background(), command.Text); err != nil {
				sc.push(sessionFrame{Type: "error", Error: err.Error()})
			}
		case "set_language":
			if err := session.SetDisplayLanguage(context.Background(), command.Language); err != nil {
				sc.push(sessionFrame{Type: "error", Error: err.Error()})
			}
		default:
			sc.push(sessionFrame{Type: "error", Error: "unknown command"})
		}
	}
}

// writeLoop flushes queued frames and keeps the connection alive
func (sc *sessionConn) writeLoop() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		sc.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sc.send:
			sc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				sc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sc.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			sc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := sc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
