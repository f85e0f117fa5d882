// Package runtime wires the chat core together: send pipeline, subscriptions,
// workers and their supervision. Business rules live in domain, storage in repositories.
package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"buddychat/domain/event"
	"buddychat/errors"
	"buddychat/moderation"
	"buddychat/observability"
	"buddychat/runtime/workers"
	"buddychat/search"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const defaultFeedPageSize = 50

// Searcher finds message ids of one conversation.
type Searcher interface {
	Search(ctx context.Context, pair domain.Pair, query search.Query) ([]domain.MessageID, error)
}

type Config struct {
	MaxTextLength   int
	StoreRetry      RetryPolicy
	RepairInterval  time.Duration
	StatsInterval   time.Duration
	EventBufferSize int
	SinkTimeout     time.Duration
	Subscription    SubscriptionConfig
}

func (c Config) withDefaults() Config {
	if c.RepairInterval <= 0 {
		c.RepairInterval = 5 * time.Second
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = 30 * time.Second
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 1024
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = 2 * time.Second
	}
	if c.Subscription.PollInterval <= 0 {
		c.Subscription.PollInterval = time.Second
	}
	if c.Subscription.ResolveBackoff.Backoff.BaseDelay <= 0 {
		c.Subscription.ResolveBackoff = NewRetryPolicy(0, 50*time.Millisecond, 2*time.Second)
	}
	if !c.Subscription.Policy.IsValid() {
		c.Subscription.Policy = domain.BlockPolicyHideNew
	}
	return c
}

type Orchestrator struct {
	mu            sync.Mutex
	log           *slog.Logger
	cfg           Config
	supervisor    contract.ISupervisor
	registry      *Registry
	pipeline      *Pipeline
	store         contract.MessageStore
	outbox        contract.FanoutOutbox
	feed          contract.FeedIndex
	gate          contract.BlockGate
	filter        DeliveryFilter
	searcher      Searcher
	monitoring    *observability.MonitoringManager
	sinks         []contract.EventSink
	eventFanout   atomic.Pointer[workers.EventFanout]
	subscriptions map[string]*Subscription
	stopped       bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	store contract.MessageStore, outbox contract.FanoutOutbox, feed contract.FeedIndex,
	gate contract.BlockGate, clock domain.Clock, monitoring *observability.MonitoringManager, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	o := &Orchestrator{
		log:           log,
		cfg:           cfg,
		supervisor:    supervisor,
		registry:      registry,
		store:         store,
		outbox:        outbox,
		feed:          feed,
		gate:          gate,
		filter:        NewDeliveryFilter(gate, cfg.Subscription.Policy),
		monitoring:    monitoring,
		subscriptions: make(map[string]*Subscription),
	}
	o.pipeline = NewPipeline(log, store, outbox, feed, gate, registry, clock, cfg.StoreRetry, cfg.MaxTextLength).
		WithPublisher(o.publish)
	return o
}

// WithModeration filters every payload before it is stored.
func (o *Orchestrator) WithModeration(filter moderation.PayloadFilter) *Orchestrator {
	o.pipeline.WithFilter(filter)
	return o
}

func (o *Orchestrator) WithSearch(searcher Searcher) *Orchestrator {
	o.searcher = searcher
	return o
}

// Add registers side-effect sinks. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
}

// Start registers the workers and runs the supervisor until ctx is done or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.cfg.EventBufferSize, o.cfg.SinkTimeout, o.sinks...)
	o.eventFanout.Store(fanout)
	o.supervisor.Add(
		workers.NewFanoutRepairWorker(o.log, o.pipeline, o.cfg.RepairInterval),
		fanout,
		workers.NewProcessStatsWorker(o.log, o, o.monitoring, o.cfg.StatsInterval),
		workers.NewChannelCapacityWorker(o.log, o.cfg.StatsInterval, fanout.Queue()),
	)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop closes every subscription then cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.Lock()
	o.stopped = true
	subscriptions := make([]*Subscription, 0, len(o.subscriptions))
	for _, sub := range o.subscriptions {
		subscriptions = append(subscriptions, sub)
	}
	o.mu.Unlock()

	for _, sub := range subscriptions {
		sub.Close()
	}
	o.supervisor.Stop()
}

func (o *Orchestrator) publish(evt event.DomainEvent) {
	if fanout := o.eventFanout.Load(); fanout != nil {
		fanout.Publish(evt)
	}
}

func (o *Orchestrator) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	return o.pipeline.Send(ctx, cmd)
}

// GetMessage returns a message to one of its participants. Anyone else gets NotFound.
func (o *Orchestrator) GetMessage(ctx context.Context, viewer domain.UserID, id domain.MessageID) (domain.Message, error) {
	message, err := o.store.Get(ctx, id)
	if err != nil {
		return domain.Message{}, err
	}
	if message.FromID != viewer && message.ToID != viewer {
		return domain.Message{}, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	return message, nil
}

// ListFeed reads one page of the owner's feed after cmd.Cursor.
// The page stops before an entry whose message cannot be resolved yet, so the
// returned cursor never skips a message.
func (o *Orchestrator) ListFeed(ctx context.Context, cmd domain.ListFeedCommand) ([]domain.DeliveredMessage, domain.Cursor, error) {
	if err := domain.Validate(cmd); err != nil {
		return nil, cmd.Cursor, err
	}
	limit := cmd.Limit
	if limit == 0 {
		limit = defaultFeedPageSize
	}
	entries, err := o.feed.ListSince(ctx, cmd.Owner, cmd.Counterpart, cmd.Cursor, limit)
	if err != nil {
		return nil, cmd.Cursor, err
	}

	next := cmd.Cursor
	res := make([]domain.DeliveredMessage, 0, len(entries))
	for _, entry := range entries {
		message, err := o.store.Get(ctx, entry.MessageID)
		if errors.Is(err, errors.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, cmd.Cursor, err
		}
		hidden, err := o.filter.Hidden(ctx, cmd.Owner, message)
		if err != nil {
			return nil, cmd.Cursor, err
		}
		next = entry.Position
		if hidden || !message.BelongsTo(cmd.Owner, cmd.Counterpart) {
			continue
		}
		res = append(res, domain.DeliveredMessage{Position: entry.Position, Message: message})
	}
	return res, next, nil
}

// Subscribe opens a live subscription on the owner's partition for counterpart.
// The subscription ends when ctx is done, when it is closed or when onMessage fails.
func (o *Orchestrator) Subscribe(ctx context.Context, cmd domain.SubscribeCommand, onMessage contract.OnMessage) (*Subscription, error) {
	if err := domain.Validate(cmd); err != nil {
		return nil, err
	}
	partition := domain.Partition{Owner: cmd.Owner, Counterpart: cmd.Counterpart}
	sub := newSubscription(o.log, partition, cmd.Cursor, onMessage,
		o.feed, o.store, o.gate, o.registry, o.cfg.Subscription, o.publish)
	sub.onClose = o.forget

	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return nil, errors.ErrSubscriptionClosed
	}
	o.subscriptions[sub.ID()] = sub
	o.mu.Unlock()

	sub.start(ctx)
	return sub, nil
}

func (o *Orchestrator) forget(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subscriptions, id)
}

func (o *Orchestrator) Counterparts(ctx context.Context, owner domain.UserID) ([]domain.UserID, error) {
	return o.feed.Counterparts(ctx, owner)
}

// Search looks for messages of the viewer's conversation with counterpart, oldest first.
// Messages hidden by the delivery policy are left out.
func (o *Orchestrator) Search(ctx context.Context, cmd domain.SearchCommand) ([]domain.Message, error) {
	if err := domain.Validate(cmd); err != nil {
		return nil, err
	}
	if o.searcher == nil {
		return nil, nil
	}
	ids, err := o.searcher.Search(ctx, domain.NewPair(cmd.Viewer, cmd.Counterpart), search.ParseQuery(cmd.Query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	var messages []domain.Message
	for _, id := range ids {
		message, err := o.store.Get(ctx, id)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		hidden, err := o.filter.Hidden(ctx, cmd.Viewer, message)
		if err != nil {
			return nil, err
		}
		if !hidden {
			messages = append(messages, message)
		}
	}
	slices.SortFunc(messages, func(a, b domain.Message) int { return a.At.Compare(b.At) })
	return messages, nil
}

// ActiveSubscriptions is the number of live watchers.
func (o *Orchestrator) ActiveSubscriptions() int {
	return o.registry.Count()
}

func (o *Orchestrator) PendingFanouts(ctx context.Context) (int, error) {
	pendings, err := o.outbox.Pending(ctx, nil, 0)
	return len(pendings), err
}

// RepairPending runs one repair round outside of the worker schedule.
func (o *Orchestrator) RepairPending(ctx context.Context) (int, error) {
	return o.pipeline.RepairPending(ctx, 0)
}
