package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"buddychat/errors"
	"buddychat/observability"
	"buddychat/repositories"
	"buddychat/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Nanosecond)
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// flakyFeed fails appends to one owner's partitions while failing is set.
type flakyFeed struct {
	contract.FeedIndex
	mu      sync.Mutex
	owner   domain.UserID
	failing bool
}

func (f *flakyFeed) Append(ctx context.Context, owner, counterpart domain.UserID, id domain.MessageID) (domain.FeedEntry, error) {
	f.mu.Lock()
	fail := f.failing && owner == f.owner
	f.mu.Unlock()
	if fail {
		return domain.FeedEntry{}, fmt.Errorf("%w: disk full", errors.ErrStoreUnavailable)
	}
	return f.FeedIndex.Append(ctx, owner, counterpart, id)
}

func (f *flakyFeed) failFor(owner domain.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = owner
	f.failing = true
}

func (f *flakyFeed) restore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = false
}

type fixture struct {
	db           *badger.DB
	log          *slog.Logger
	clock        *manualClock
	store        repositories.MessageRepository
	outbox       repositories.OutboxRepository
	feed         *flakyFeed
	blocks       repositories.BlockRepository
	registry     *Registry
	orchestrator *Orchestrator
}

func newFixture(t *testing.T, policy domain.BlockPolicy) *fixture {
	t.Helper()
	db, err := database.LoadBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.CleanupDB(db, nil) })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := &fixture{
		db:       db,
		log:      log,
		clock:    newManualClock(time.Unix(0, 0).UTC()),
		store:    repositories.NewMessageRepository(db, log),
		outbox:   repositories.NewOutboxRepository(db, log),
		blocks:   repositories.NewBlockRepository(db, log),
		registry: NewRegistry(),
	}
	f.feed = &flakyFeed{FeedIndex: repositories.NewFeedRepository(db, log)}
	f.orchestrator = NewOrchestrator(log, workers.NewSupervisor(log), f.registry,
		f.store, f.outbox, f.feed, f.blocks, f.clock, observability.NewMonitoringManager(log),
		Config{
			MaxTextLength:  4000,
			StoreRetry:     NewRetryPolicy(2, time.Millisecond, 2*time.Millisecond),
			RepairInterval: 20 * time.Millisecond,
			Subscription: SubscriptionConfig{
				Policy:         policy,
				PollInterval:   50 * time.Millisecond,
				ResolveBackoff: NewRetryPolicy(0, 5*time.Millisecond, 20*time.Millisecond),
			},
		})
	t.Cleanup(f.orchestrator.Stop)
	return f
}

func (f *fixture) send(t *testing.T, from, to domain.UserID, text string) domain.Message {
	t.Helper()
	message, err := f.orchestrator.Send(context.Background(), domain.SendCommand{
		FromID: from, ToID: to, Payload: domain.Payload{Text: text},
	})
	require.NoError(t, err)
	return message
}

func (f *fixture) feedIDs(t *testing.T, owner, counterpart domain.UserID) []domain.MessageID {
	t.Helper()
	entries, err := f.feed.ListSince(context.Background(), owner, counterpart, 0, 0)
	require.NoError(t, err)
	ids := make([]domain.MessageID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.MessageID)
	}
	return ids
}

// collector records deliveries and lets tests wait for them.
type collector struct {
	mu        sync.Mutex
	delivered []domain.DeliveredMessage
}

func (c *collector) onMessage(_ context.Context, msg domain.DeliveredMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, msg)
	return nil
}

func (c *collector) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.delivered))
	for _, d := range c.delivered {
		res = append(res, d.Message.Payload.Text)
	}
	return res
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

func sendCommand(from, to domain.UserID, text string) domain.SendCommand {
	return domain.SendCommand{FromID: from, ToID: to, Payload: domain.Payload{Text: text}}
}

func idStrings(ids []domain.MessageID) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		res = append(res, string(id))
	}
	return res
}
