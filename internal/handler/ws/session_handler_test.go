package ws

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/internal/service/chat"
	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitDefault()
	os.Exit(m.Run())
}

// fakeSessionBackend keeps history in memory and persists sends into it
type fakeSessionBackend struct {
	mu      sync.Mutex
	history []*domain.MessageResponse
}

func (b *fakeSessionBackend) SendMessage(ctx context.Context, input *chat.SendMessageInput) (*chat.SendMessageOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if input.Content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	message := &domain.MessageResponse{
		MessageID:      uuid.New(),
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Content:        input.Content,
		CreatedAt:      time.Now(),
	}
	b.history = append([]*domain.MessageResponse{message}, b.history...)
	return &chat.SendMessageOutput{Message: message}, nil
}

func (b *fakeSessionBackend) GetMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]*domain.MessageResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*domain.MessageResponse, len(b.history))
	copy(out, b.history)
	return out, nil
}

// fakeConversationGetter serves one conversation to its parties
type fakeConversationGetter struct {
	conversation *domain.Conversation
}

func (g *fakeConversationGetter) GetByID(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	if g.conversation == nil || g.conversation.ConversationID != conversationID {
		return nil, fmt.Errorf("conversation not found")
	}
	if g.conversation.FarmerID != userID && g.conversation.RetailerID != userID {
		return nil, fmt.Errorf("not a participant")
	}
	return g.conversation, nil
}

// taggingTranslator marks non-canonical renders with the language
type taggingTranslator struct{}

func (taggingTranslator) ToDisplay(ctx context.Context, text, displayLang string) string {
	if displayLang == domain.CanonicalLanguage {
		return text
	}
	return "[" + displayLang + "] " + text
}

// silentFeed never emits events
type silentFeed struct{}

func (silentFeed) Publish(ctx context.Context, event realtime.Event) error { return nil }

func (silentFeed) SubscribeConversation(ctx context.Context, conversationID uuid.UUID) (<-chan realtime.Event, realtime.CancelFunc, error) {
	ch := make(chan realtime.Event)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }, nil
}

func (silentFeed) SubscribeUser(ctx context.Context, userID uuid.UUID) (<-chan realtime.Event, realtime.CancelFunc, error) {
	ch := make(chan realtime.Event)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }, nil
}

func newSessionFixture(t *testing.T, backend *fakeSessionBackend, userID uuid.UUID, conversation *domain.Conversation) *httptest.Server {
	t.Helper()

	handler := NewSessionHandler(backend, &fakeConversationGetter{conversation: conversation}, taggingTranslator{}, silentFeed{})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	router.GET("/v1/ws/sessions", handler.ServeSession)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dialSession(t *testing.T, server *httptest.Server, conversationID uuid.UUID, lang string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/v1/ws/sessions?conversation_id=" + conversationID.String() + "&lang=" + lang
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) sessionFrame {
	t.Helper()

	var frame sessionFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestServeSession_StreamsInitialViewInDisplayLanguage(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}
	backend := &fakeSessionBackend{history: []*domain.MessageResponse{{
		MessageID:      uuid.New(),
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.RetailerID,
		Content:        "How much per kg?",
		CreatedAt:      time.Now(),
	}}}

	server := newSessionFixture(t, backend, conversation.FarmerID, conversation)
	conn := dialSession(t, server, conversation.ConversationID, "kn")

	frame := readFrame(t, conn)

	assert.Equal(t, "sync", frame.Type)
	require.Len(t, frame.Messages, 1)
	assert.Equal(t, "[kn] How much per kg?", frame.Messages[0].Text)
	assert.Equal(t, "How much per kg?", frame.Messages[0].Original)
}

func TestServeSession_SendCommandSyncsNewMessage(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}
	backend := &fakeSessionBackend{}

	server := newSessionFixture(t, backend, conversation.FarmerID, conversation)
	conn := dialSession(t, server, conversation.ConversationID, "en")

	initial := readFrame(t, conn)
	assert.Empty(t, initial.Messages)

	require.NoError(t, conn.WriteJSON(sessionCommand{Type: "send", Text: "500 rupees"}))

	frame := readFrame(t, conn)
	assert.Equal(t, "sync", frame.Type)
	require.NotEmpty(t, frame.Messages)
	assert.Equal(t, "500 rupees", frame.Messages[0].Text)
	assert.Equal(t, conversation.FarmerID, frame.Messages[0].SenderID)
}

func TestServeSession_LanguageChangeRerendersView(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}
	backend := &fakeSessionBackend{history: []*domain.MessageResponse{{
		MessageID:      uuid.New(),
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.RetailerID,
		Content:        "Fresh stock tomorrow",
		CreatedAt:      time.Now(),
	}}}

	server := newSessionFixture(t, backend, conversation.FarmerID, conversation)
	conn := dialSession(t, server, conversation.ConversationID, "en")

	initial := readFrame(t, conn)
	require.Len(t, initial.Messages, 1)
	assert.Equal(t, "Fresh stock tomorrow", initial.Messages[0].Text)

	require.NoError(t, conn.WriteJSON(sessionCommand{Type: "set_language", Language: "te"}))

	frame := readFrame(t, conn)
	assert.Equal(t, "sync", frame.Type)
	require.Len(t, frame.Messages, 1)
	assert.Equal(t, "[te] Fresh stock tomorrow", frame.Messages[0].Text)
}

func TestServeSession_EmptySendReturnsErrorFrame(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}

	server := newSessionFixture(t, &fakeSessionBackend{}, conversation.FarmerID, conversation)
	conn := dialSession(t, server, conversation.ConversationID, "en")

	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(sessionCommand{Type: "send", Text: ""}))

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Type)
	assert.NotEmpty(t, frame.Error)
}

func TestServeSession_NonParticipantRejected(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}

	server := newSessionFixture(t, &fakeSessionBackend{}, uuid.New(), conversation)

	url := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/v1/ws/sessions?conversation_id=" + conversation.ConversationID.String()
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestServeSession_UnknownConversationRejected(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}

	server := newSessionFixture(t, &fakeSessionBackend{}, conversation.FarmerID, conversation)

	url := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/v1/ws/sessions?conversation_id=" + uuid.New().String()
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
