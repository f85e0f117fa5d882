package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"buddychat/domain/event"
	"buddychat/errors"
	"buddychat/observability"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const subscriptionPageSize = 100

type SubscriptionState int32

const (
	Idle SubscriptionState = iota
	Watching
	Closed
)

func (s SubscriptionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	default:
		return "closed"
	}
}

// SubscriptionConfig tunes every subscription opened by the orchestrator.
type SubscriptionConfig struct {
	Policy         domain.BlockPolicy
	PollInterval   time.Duration
	ResolveBackoff RetryPolicy
}

// Subscription tails one partition of the fan-out index and hands each resolved
// message to its consumer, in position order, once.
//
// A single goroutine reads and delivers, so the consumer is never called concurrently.
// The watcher is registered before the first read: an entry appended during the
// catch-up is either read by it or announced by a wake-up.
type Subscription struct {
	id        string
	partition domain.Partition
	cursor    domain.Cursor
	onMessage contract.OnMessage

	log      *slog.Logger
	feed     contract.FeedIndex
	store    contract.MessageStore
	filter   DeliveryFilter
	registry contract.IRegistry
	cfg      SubscriptionConfig
	publish  Publisher
	onClose  func(id string)

	state  atomic.Int32
	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newSubscription(log *slog.Logger, partition domain.Partition, cursor domain.Cursor, onMessage contract.OnMessage,
	feed contract.FeedIndex, store contract.MessageStore, gate contract.BlockGate, registry contract.IRegistry,
	cfg SubscriptionConfig, publish Publisher) *Subscription {
	id := uuid.NewString()
	return &Subscription{
		id:        id,
		partition: partition,
		cursor:    cursor,
		onMessage: onMessage,
		log:       log.With("subscription_id", id, "owner", partition.Owner, "counterpart", partition.Counterpart),
		feed:      feed,
		store:     store,
		filter:    NewDeliveryFilter(gate, cfg.Policy),
		registry:  registry,
		cfg:       cfg,
		publish:   publish,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

func (s *Subscription) ID() string { return s.id }

func (s *Subscription) Partition() domain.Partition { return s.partition }

func (s *Subscription) State() SubscriptionState { return SubscriptionState(s.state.Load()) }

// Wake never blocks: pending wake-ups coalesce into one.
func (s *Subscription) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the delivery goroutine has returned.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err is the consumer error that closed the subscription, nil otherwise.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.registry.Subscribe(s.partition, s.id, s)
	s.state.Store(int32(Watching))
	observability.ActiveSubscriptions.Inc()
	go s.run(runCtx)
}

// Close stops future deliveries right away. A callback already running is not interrupted.
// Close is idempotent and may be called from inside the callback.
func (s *Subscription) Close() {
	if !s.state.CompareAndSwap(int32(Watching), int32(Closed)) {
		s.state.CompareAndSwap(int32(Idle), int32(Closed))
		return
	}
	s.registry.Unsubscribe(s.partition, s.id)
	s.cancel()
	observability.ActiveSubscriptions.Dec()
	if s.onClose != nil {
		s.onClose(s.id)
	}
	s.log.Debug("Subscription closed")
}

func (s *Subscription) closed() bool {
	return s.State() == Closed
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer s.Close()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.drain(ctx); err != nil {
			if ctx.Err() == nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				s.log.Info("Consumer stopped the subscription", "error", err)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// drain delivers everything after the cursor. It only returns an error when the
// subscription must end; transient read failures wait for the next wake-up or tick.
func (s *Subscription) drain(ctx context.Context) error {
	for {
		entries, err := s.feed.ListSince(ctx, s.partition.Owner, s.partition.Counterpart, s.cursor, subscriptionPageSize)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("Feed read failed, waiting for next round", "error", err)
			return nil
		}
		for _, entry := range entries {
			delivered, err := s.deliver(ctx, entry)
			if err != nil {
				return err
			}
			if !delivered {
				return nil
			}
			s.cursor = entry.Position
		}
		if len(entries) < subscriptionPageSize {
			return nil
		}
	}
}

// deliver resolves, filters and hands one entry to the consumer.
// It reports false when the entry must be retried later.
func (s *Subscription) deliver(ctx context.Context, entry domain.FeedEntry) (bool, error) {
	message, err := s.resolve(ctx, entry.MessageID)
	if err != nil {
		return false, err
	}
	if !message.BelongsTo(s.partition.Owner, s.partition.Counterpart) {
		s.log.Error("Feed entry points to a message of another conversation, skipping",
			"message_id", entry.MessageID, "position", entry.Position)
		return true, nil
	}

	hidden, err := s.filter.Hidden(ctx, s.partition.Owner, message)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.log.Warn("Block gate unavailable, delivery postponed", "error", err)
		return false, nil
	}
	if hidden {
		return true, nil
	}

	if s.closed() {
		return false, ctx.Err()
	}
	if err := s.onMessage(ctx, domain.DeliveredMessage{Position: entry.Position, Message: message}); err != nil {
		return false, err
	}
	s.publish(event.MessageDelivered{Partition: s.partition, Message: message, At: time.Now().UTC()})
	return true, nil
}

// resolve waits for the message to become readable. A feed entry always has a
// message behind it, so NotFound only means the store is not there yet.
func (s *Subscription) resolve(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	for attempt := 0; ; attempt++ {
		message, err := s.store.Get(ctx, id)
		if err == nil {
			return message, nil
		}
		if ctx.Err() != nil {
			return domain.Message{}, ctx.Err()
		}
		if !errors.Is(err, errors.ErrNotFound) && !errors.IsRetryable(err) {
			s.log.Warn("Unexpected error while resolving", "message_id", id, "error", err)
		}
		delay := s.cfg.ResolveBackoff.Delay(attempt)
		s.log.Debug("Message not resolvable yet", "message_id", id, "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return domain.Message{}, ctx.Err()
		case <-time.After(delay):
		}
	}
}
