package chat

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

// fakeMessageStore records saved messages in memory
type fakeMessageStore struct {
	messages []*domain.Message
	saveErr  error
	saves    int
}

func (s *fakeMessageStore) Save(message *domain.Message) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.messages = append(s.messages, message)
	return nil
}

func (s *fakeMessageStore) GetByConversation(conversationID uuid.UUID) ([]*domain.Message, error) {
	out := make([]*domain.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) CountUnreadFrom(conversationID, userID uuid.UUID) (int, error) {
	count := 0
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.SenderID != userID && m.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *fakeMessageStore) MarkReadFrom(conversationID, userID uuid.UUID, at time.Time) error {
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.SenderID != userID && m.ReadAt == nil {
			stamped := at
			m.ReadAt = &stamped
		}
	}
	return nil
}

// fakeConversationStore serves one conversation and records preview updates
type fakeConversationStore struct {
	conversation *domain.Conversation

	previewUpdates int
	lastPreview    string
	lastSender     uuid.UUID
}

func (s *fakeConversationStore) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	if s.conversation != nil && s.conversation.ConversationID == conversationID {
		return s.conversation, nil
	}
	return nil, nil
}

func (s *fakeConversationStore) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	if s.conversation == nil || s.conversation.ConversationID != conversationID {
		return false, nil
	}
	return s.conversation.FarmerID == userID || s.conversation.RetailerID == userID, nil
}

func (s *fakeConversationStore) UpdatePreview(ctx context.Context, conversationID, senderID uuid.UUID, preview string, at time.Time) error {
	s.previewUpdates++
	s.lastPreview = preview
	s.lastSender = senderID
	return nil
}

func (s *fakeConversationStore) GetForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	if s.conversation == nil {
		return nil, nil
	}
	return []*domain.ConversationSummary{{
		ConversationID: s.conversation.ConversationID,
	}}, nil
}

// fakeFeed records published events
type fakeFeed struct {
	events []realtime.Event
}

func (f *fakeFeed) Publish(ctx context.Context, event realtime.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeFeed) SubscribeConversation(ctx context.Context, conversationID uuid.UUID) (<-chan realtime.Event, realtime.CancelFunc, error) {
	ch := make(chan realtime.Event)
	return ch, func() { close(ch) }, nil
}

func (f *fakeFeed) SubscribeUser(ctx context.Context, userID uuid.UUID) (<-chan realtime.Event, realtime.CancelFunc, error) {
	ch := make(chan realtime.Event)
	return ch, func() { close(ch) }, nil
}

// prefixTranslator marks text that went through canonical translation
type prefixTranslator struct {
	prefix string
}

func (tr *prefixTranslator) ToCanonical(ctx context.Context, text, authoredLang string) string {
	if authoredLang == domain.CanonicalLanguage {
		return text
	}
	return tr.prefix + text
}

// passthroughTranslator behaves like the chain after total provider
// failure: authored text goes through unchanged
type passthroughTranslator struct{}

func (passthroughTranslator) ToCanonical(ctx context.Context, text, authoredLang string) string {
	return text
}

// fakeNotifier records fan-outs
type fakeNotifier struct {
	recipients []uuid.UUID
	previews   []string
}

func (n *fakeNotifier) NotifyNewMessage(ctx context.Context, recipientID, conversationID uuid.UUID, preview string) {
	n.recipients = append(n.recipients, recipientID)
	n.previews = append(n.previews, preview)
}

func newChatFixture() (*Service, *fakeMessageStore, *fakeConversationStore, *fakeFeed, *fakeNotifier, *domain.Conversation) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		CropID:         uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}
	messages := &fakeMessageStore{}
	conversations := &fakeConversationStore{conversation: conversation}
	feed := &fakeFeed{}
	notifier := &fakeNotifier{}
	svc := NewService(messages, conversations, &prefixTranslator{prefix: "[en] "}, feed, notifier)
	return svc, messages, conversations, feed, notifier, conversation
}

func TestSendMessage_PersistsCanonicalExactlyOnce(t *testing.T) {
	svc, messages, conversations, feed, notifier, conversation := newChatFixture()

	out, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.FarmerID,
		Content:        "ಎಷ್ಟು ಬೆಲೆ?",
		AuthoredLang:   "kn",
	})

	require.NoError(t, err)
	require.Equal(t, 1, messages.saves, "exactly one message persisted per send")
	assert.Equal(t, "[en] ಎಷ್ಟು ಬೆಲೆ?", messages.messages[0].Content, "stored content is canonical")
	assert.Equal(t, messages.messages[0].MessageID, out.Message.MessageID)

	require.Equal(t, 1, conversations.previewUpdates)
	assert.Equal(t, "[en] ಎಷ್ಟು ಬೆಲೆ?", conversations.lastPreview)
	assert.Equal(t, conversation.FarmerID, conversations.lastSender)

	require.Len(t, feed.events, 1)
	assert.Equal(t, realtime.EventMessageInserted, feed.events[0].Type)
	assert.Equal(t, conversation.ConversationID, feed.events[0].ConversationID)

	require.Len(t, notifier.recipients, 1)
	assert.Equal(t, conversation.RetailerID, notifier.recipients[0], "counterpart gets the notification")
}

func TestSendMessage_LongContentTruncatedInPreview(t *testing.T) {
	svc, messages, conversations, _, notifier, conversation := newChatFixture()

	long := strings.Repeat("x", 80)

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.RetailerID,
		Content:        long,
		AuthoredLang:   "en",
	})

	require.NoError(t, err)
	assert.Equal(t, long, messages.messages[0].Content, "stored message keeps full text")
	assert.Equal(t, strings.Repeat("x", domain.PreviewMaxLen)+"...", conversations.lastPreview)
	assert.Equal(t, conversations.lastPreview, notifier.previews[0], "notification carries the truncated preview")
}

func TestSendMessage_TranslationFailurePersistsOriginal(t *testing.T) {
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		FarmerID:       uuid.New(),
		RetailerID:     uuid.New(),
	}
	messages := &fakeMessageStore{}
	conversations := &fakeConversationStore{conversation: conversation}
	svc := NewService(messages, conversations, passthroughTranslator{}, &fakeFeed{}, &fakeNotifier{})

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.FarmerID,
		Content:        "ಎಷ್ಟು ಬೆಲೆ?",
		AuthoredLang:   "kn",
	})

	require.NoError(t, err, "translation failure must not block delivery")
	require.Equal(t, 1, messages.saves)
	assert.Equal(t, "ಎಷ್ಟು ಬೆಲೆ?", messages.messages[0].Content, "untranslated original is persisted")
}

func TestSendMessage_EmptyContentRejected(t *testing.T) {
	svc, messages, _, _, _, conversation := newChatFixture()

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.FarmerID,
		Content:        "",
		AuthoredLang:   "kn",
	})

	assert.Error(t, err)
	assert.Equal(t, 0, messages.saves)
}

func TestSendMessage_NonParticipantRejected(t *testing.T) {
	svc, messages, _, _, notifier, conversation := newChatFixture()

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       uuid.New(),
		Content:        "hello",
		AuthoredLang:   "en",
	})

	assert.Error(t, err)
	assert.Equal(t, 0, messages.saves)
	assert.Empty(t, notifier.recipients)
}

func TestSendMessage_PersistFailureAbortsPipeline(t *testing.T) {
	svc, messages, conversations, feed, notifier, conversation := newChatFixture()
	messages.saveErr = errors.New("write timeout")

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.FarmerID,
		Content:        "hello",
		AuthoredLang:   "en",
	})

	require.Error(t, err)
	assert.Equal(t, 0, conversations.previewUpdates, "preview untouched after persist failure")
	assert.Empty(t, feed.events)
	assert.Empty(t, notifier.recipients)
}

func TestSendMessage_FarmerNotifiedWhenRetailerSends(t *testing.T) {
	svc, _, _, _, notifier, conversation := newChatFixture()

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.RetailerID,
		Content:        "deal",
		AuthoredLang:   "en",
	})

	require.NoError(t, err)
	require.Len(t, notifier.recipients, 1)
	assert.Equal(t, conversation.FarmerID, notifier.recipients[0])
}

func TestGetMessages_RequiresParticipant(t *testing.T) {
	svc, _, _, _, _, conversation := newChatFixture()

	_, err := svc.GetMessages(context.Background(), conversation.ConversationID, uuid.New())

	assert.Error(t, err)
}

func TestMarkRead_StampsCounterpartMessages(t *testing.T) {
	svc, messages, _, _, _, conversation := newChatFixture()

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ConversationID,
		SenderID:       conversation.FarmerID,
		Content:        "hello",
		AuthoredLang:   "en",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), conversation.ConversationID, conversation.RetailerID))

	require.NotNil(t, messages.messages[0].ReadAt)

	count, err := messages.CountUnreadFrom(conversation.ConversationID, conversation.RetailerID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
