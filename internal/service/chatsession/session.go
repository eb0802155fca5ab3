package chatsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/service/chat"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
)

// Backend is the server-side chat surface a session talks to
type Backend interface {
	SendMessage(ctx context.Context, input *chat.SendMessageInput) (*chat.SendMessageOutput, error)
	GetMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]*domain.MessageResponse, error)
}

// DisplayTranslator renders canonical text in a display language
type DisplayTranslator interface {
	ToDisplay(ctx context.Context, text, displayLang string) string
}

// DisplayMessage is the view model for one rendered message. It keeps
// the canonical text alongside the rendered text so a language switch
// re-translates from memory instead of re-fetching.
type DisplayMessage struct {
	ID        string    `json:"id"` // message UUID, or temp_<ms> while pending
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`     // rendered in the display language
	Original  string    `json:"original"` // canonical text, or authored text while pending
	CreatedAt time.Time `json:"created_at"`
	Pending   bool      `json:"pending"`

	// confirmedID ties an optimistic entry to the persisted message
	// it will be retired by.
	confirmedID string
}

// Session is the per-screen view of one conversation: it synchronizes
// the rendered history, reconciles optimistic sends and tracks the
// selected display language.
type Session struct {
	conversation *domain.Conversation
	userID       uuid.UUID
	backend      Backend
	translator   DisplayTranslator

	mu          sync.Mutex
	displayLang string
	order       []string // ids, newest first
	index       map[string]*DisplayMessage
	pending     []*DisplayMessage // optimistic entries, newest first
	onUpdate    func([]DisplayMessage)
	closed      bool
}

// NewSession creates a session for an already-resolved conversation
func NewSession(conversation *domain.Conversation, userID uuid.UUID, backend Backend, translator DisplayTranslator, displayLang string) *Session {
	if displayLang == "" {
		displayLang = domain.CanonicalLanguage
	}
	return &Session{
		conversation: conversation,
		userID:       userID,
		backend:      backend,
		translator:   translator,
		displayLang:  displayLang,
		index:        make(map[string]*DisplayMessage),
	}
}

// SetOnUpdate registers a callback invoked with the fresh view after
// every successful sync pass. Set it before the driver starts; the
// callback runs outside the session lock.
func (s *Session) SetOnUpdate(fn func([]DisplayMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// ConversationID identifies the thread this session renders
func (s *Session) ConversationID() uuid.UUID {
	return s.conversation.ConversationID
}

// DisplayLanguage returns the currently selected display language
func (s *Session) DisplayLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayLang
}

// Sync fetches the full history newest-first, renders every message
// in the display language and reconciles the local view by message
// id. Optimistic entries whose persisted counterpart appeared are
// retired; the rest stay at the head of the list. On fetch failure
// the previous view is left intact and the error returned.
//
// Rendering covers the whole history on every pass; there is no
// per-message translation cache across passes.
func (s *Session) Sync(ctx context.Context) ([]DisplayMessage, error) {
	displayLang := s.DisplayLanguage()

	fetched, err := s.backend.GetMessages(ctx, s.conversation.ConversationID, s.userID)
	if err != nil {
		metrics.ChatSyncTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	rendered := make([]*DisplayMessage, 0, len(fetched))
	for _, message := range fetched {
		rendered = append(rendered, &DisplayMessage{
			ID:        message.MessageID.String(),
			SenderID:  message.SenderID,
			Text:      s.translator.ToDisplay(ctx, message.Content, displayLang),
			Original:  message.Content,
			CreatedAt: message.CreatedAt,
		})
	}

	s.mu.Lock()

	if s.closed {
		// Late result for a torn-down screen
		s.mu.Unlock()
		return nil, fmt.Errorf("session closed")
	}
	if s.displayLang != displayLang {
		// Language changed mid-flight; the one-shot sync for the new
		// language supersedes this pass.
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		return snapshot, nil
	}

	confirmed := make(map[string]struct{}, len(rendered))
	s.order = s.order[:0]
	s.index = make(map[string]*DisplayMessage, len(rendered)+len(s.pending))
	for _, dm := range rendered {
		confirmed[dm.ID] = struct{}{}
		s.order = append(s.order, dm.ID)
		s.index[dm.ID] = dm
	}

	// Retire optimistic entries the server now owns
	remaining := s.pending[:0]
	for _, dm := range s.pending {
		if _, ok := confirmed[dm.confirmedID]; ok {
			continue
		}
		remaining = append(remaining, dm)
		s.index[dm.ID] = dm
	}
	s.pending = remaining

	snapshot := s.snapshotLocked()
	notify := s.onUpdate
	s.mu.Unlock()

	metrics.ChatSyncTotal.WithLabelValues("success").Inc()
	if notify != nil {
		notify(snapshot)
	}
	return snapshot, nil
}

// Send runs the outbound pipeline for authored text: the backend
// translates to canonical, persists and updates the preview; the
// session then echoes the original authored text immediately under a
// temporary id and triggers a reconciling sync. A persist failure
// surfaces here with no optimistic echo.
func (s *Session) Send(ctx context.Context, authoredText string) error {
	if authoredText == "" {
		return fmt.Errorf("message text is required")
	}

	displayLang := s.DisplayLanguage()

	out, err := s.backend.SendMessage(ctx, &chat.SendMessageInput{
		ConversationID: s.conversation.ConversationID,
		SenderID:       s.userID,
		Content:        authoredText,
		AuthoredLang:   displayLang,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	optimistic := &DisplayMessage{
		ID:          fmt.Sprintf("temp_%d", time.Now().UnixMilli()),
		SenderID:    s.userID,
		Text:        authoredText, // sender sees their own words, untranslated
		Original:    authoredText,
		CreatedAt:   out.Message.CreatedAt,
		Pending:     true,
		confirmedID: out.Message.MessageID.String(),
	}

	s.mu.Lock()
	if !s.closed {
		s.pending = append([]*DisplayMessage{optimistic}, s.pending...)
		s.index[optimistic.ID] = optimistic
	}
	s.mu.Unlock()

	if _, err := s.Sync(ctx); err != nil {
		// The optimistic entry keeps the message visible; the next
		// tick reconciles it.
		logger.Debug("Post-send sync failed",
			zap.String("conversation_id", s.conversation.ConversationID.String()),
			zap.Error(err))
	}

	return nil
}

// SetDisplayLanguage switches the rendering language and runs one
// immediate re-translation pass over the loaded history. Stored
// content is untouched.
func (s *Session) SetDisplayLanguage(ctx context.Context, lang string) error {
	supported := false
	for _, l := range domain.SupportedLanguages {
		if l == lang {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported language: %s", lang)
	}

	s.mu.Lock()
	if s.displayLang == lang {
		s.mu.Unlock()
		return nil
	}
	s.displayLang = lang
	s.mu.Unlock()

	if _, err := s.Sync(ctx); err != nil {
		return err
	}
	return nil
}

// Messages returns the current view, newest first, pending entries at
// the head
func (s *Session) Messages() []DisplayMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() []DisplayMessage {
	out := make([]DisplayMessage, 0, len(s.pending)+len(s.order))
	for _, dm := range s.pending {
		out = append(out, *dm)
	}
	for _, id := range s.order {
		out = append(out, *s.index[id])
	}
	return out
}

// Close marks the session torn down; late sync results are discarded
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
