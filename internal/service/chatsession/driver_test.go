package chatsession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/internal/realtime"
)

// fakeFeed hands out one in-memory event channel per subscription
type fakeFeed struct {
	mu        sync.Mutex
	events    chan realtime.Event
	cancelled bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{events: make(chan realtime.Event, 8)}
}

func (f *fakeFeed) Publish(ctx context.Context, event realtime.Event) error {
	f.events <- event
	return nil
}

func (f *fakeFeed) SubscribeConversation(ctx context.Context, conversationID uuid.UUID) (<-chan realtime.Event, realtime.CancelFunc, error) {
	return f.events, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = true
	}, nil
}

func (f *fakeFeed) SubscribeUser(ctx context.Context, userID uuid.UUID) (<-chan realtime.Event, realtime.CancelFunc, error) {
	return f.events, func() {}, nil
}

func (f *fakeFeed) wasCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func waitForFetches(t *testing.T, backend *fakeBackend, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if backend.fetchCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected at least %d sync passes, saw %d", want, backend.fetchCount())
}

func TestDriver_InitialSyncBeforeFirstTick(t *testing.T) {
	userID := uuid.New()
	conv := newConversation(userID)
	backend := &fakeBackend{}
	session := NewSession(conv, userID, backend, &taggingTranslator{}, "en")
	driver := NewDriver(session, newFakeFeed(), time.Hour)

	require.NoError(t, driver.Start(context.Background()))
	defer driver.Stop()

	waitForFetches(t, backend, 1)
}

func TestDriver_FeedEventTriggersImmediateSync(t *testing.T) {
	userID := uuid.New()
	conv := newConversation(userID)
	backend := &fakeBackend{}
	session := NewSession(conv, userID, backend, &taggingTranslator{}, "en")
	feed := newFakeFeed()
	driver := NewDriver(session, feed, time.Hour)

	require.NoError(t, driver.Start(context.Background()))
	defer driver.Stop()

	waitForFetches(t, backend, 1)

	feed.events <- realtime.Event{
		Type:           realtime.EventMessageInserted,
		ConversationID: conv.ConversationID,
	}

	waitForFetches(t, backend, 2)
}

func TestDriver_IgnoresOtherEventTypes(t *testing.T) {
	userID := uuid.New()
	conv := newConversation(userID)
	backend := &fakeBackend{}
	session := NewSession(conv, userID, backend, &taggingTranslator{}, "en")
	feed := newFakeFeed()
	driver := NewDriver(session, feed, time.Hour)

	require.NoError(t, driver.Start(context.Background()))
	defer driver.Stop()

	waitForFetches(t, backend, 1)

	feed.events <- realtime.Event{Type: realtime.EventNotification, UserID: userID}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, backend.fetchCount(), "notification events do not trigger syncs")
}

func TestDriver_TickerKeepsSyncing(t *testing.T) {
	userID := uuid.New()
	conv := newConversation(userID)
	backend := &fakeBackend{}
	session := NewSession(conv, userID, backend, &taggingTranslator{}, "en")
	driver := NewDriver(session, newFakeFeed(), 20*time.Millisecond)

	require.NoError(t, driver.Start(context.Background()))
	defer driver.Stop()

	waitForFetches(t, backend, 3)
}

func TestDriver_StopTearsDown(t *testing.T) {
	userID := uuid.New()
	conv := newConversation(userID)
	backend := &fakeBackend{}
	session := NewSession(conv, userID, backend, &taggingTranslator{}, "en")
	feed := newFakeFeed()
	driver := NewDriver(session, feed, 10*time.Millisecond)

	require.NoError(t, driver.Start(context.Background()))
	waitForFetches(t, backend, 1)

	driver.Stop()

	assert.True(t, feed.wasCancelled(), "subscription released on stop")

	// The session is closed, so a late pass is discarded
	_, err := session.Sync(context.Background())
	assert.Error(t, err)

	// Stop is idempotent
	driver.Stop()
}

func TestDriver_StartTwiceIsNoop(t *testing.T) {
	userID := uuid.New()
	conv := newConversation(userID)
	backend := &fakeBackend{}
	session := NewSession(conv, userID, backend, &taggingTranslator{}, "en")
	driver := NewDriver(session, newFakeFeed(), time.Hour)

	require.NoError(t, driver.Start(context.Background()))
	require.NoError(t, driver.Start(context.Background()))
	defer driver.Stop()

	waitForFetches(t, backend, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, backend.fetchCount(), "second Start must not spawn a second loop")
}
