package chatsession

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/pkg/logger"
)

// DefaultPollInterval is the floor guarantee between syncs while a
// conversation screen is open. Feed events trigger syncs immediately,
// independent of timer phase.
const DefaultPollInterval = 3 * time.Second

// Driver owns the refresh loop of one open session: a fixed-interval
// ticker plus immediate syncs on realtime insert events. Exactly one
// driver runs per open conversation screen.
type Driver struct {
	session  *Session
	feed     realtime.Feed
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	unsub   realtime.CancelFunc
	started bool
}

// NewDriver creates a driver for an open session
func NewDriver(session *Session, feed realtime.Feed, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Driver{
		session:  session,
		feed:     feed,
		interval: interval,
	}
}

// Start begins the refresh loop. It subscribes to the conversation's
// feed channel and runs an initial sync before the first tick.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)

	events, unsub, err := d.feed.SubscribeConversation(loopCtx, d.session.ConversationID())
	if err != nil {
		cancel()
		return err
	}

	d.cancel = cancel
	d.unsub = unsub
	d.started = true

	go d.run(loopCtx, events)

	return nil
}

func (d *Driver) run(ctx context.Context, events <-chan realtime.Event) {
	d.syncOnce(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.syncOnce(ctx)
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type == realtime.EventMessageInserted {
				d.syncOnce(ctx)
			}
		}
	}
}

func (d *Driver) syncOnce(ctx context.Context) {
	if _, err := d.session.Sync(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Debug("Sync pass failed",
			zap.String("conversation_id", d.session.ConversationID().String()),
			zap.Error(err))
	}
}

// Stop tears the loop down: ticker stopped, subscription cancelled,
// session closed so late results are discarded
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return
	}
	d.started = false

	d.cancel()
	d.unsub()
	d.session.Close()
}
