package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"buddychat/domain/event"
	"buddychat/errors"
	"buddychat/moderation"
	"buddychat/observability"
	"context"
	"fmt"
	"log/slog"
)

// Publisher hands a durable fact to the side-effect sinks. It must not block.
type Publisher func(evt event.DomainEvent)

// Pipeline is the only write path of the chat core.
// Every step of a send runs under the lock of its pair, so a feed partition
// always has a single writer and positions follow timestamps.
type Pipeline struct {
	log           *slog.Logger
	store         contract.MessageStore
	outbox        contract.FanoutOutbox
	feed          contract.FeedIndex
	gate          contract.BlockGate
	registry      contract.IRegistry
	clock         domain.Clock
	locks         *KeyedMutex
	retry         RetryPolicy
	maxTextLength int
	filter        moderation.PayloadFilter
	publish       Publisher
}

func NewPipeline(log *slog.Logger,
	store contract.MessageStore, outbox contract.FanoutOutbox, feed contract.FeedIndex,
	gate contract.BlockGate, registry contract.IRegistry, clock domain.Clock,
	retry RetryPolicy, maxTextLength int) *Pipeline {
	return &Pipeline{
		log:           log,
		store:         store,
		outbox:        outbox,
		feed:          feed,
		gate:          gate,
		registry:      registry,
		clock:         clock,
		locks:         NewKeyedMutex(),
		retry:         retry,
		maxTextLength: maxTextLength,
		filter:        moderation.NoFilter{},
		publish:       func(event.DomainEvent) {},
	}
}

func (p *Pipeline) WithFilter(filter moderation.PayloadFilter) *Pipeline {
	p.filter = filter
	return p
}

func (p *Pipeline) WithPublisher(publish Publisher) *Pipeline {
	p.publish = publish
	return p
}

// Send stores the message and indexes it in both partitions.
//
// A rejected send (invalid command, blocked sender) writes nothing.
// When the message is stored but a partition append keeps failing, Send returns
// the stored message along with ErrPartialFanoutFailure: the outbox marker stays
// and the repair worker completes the fan-out later.
func (p *Pipeline) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	if err := domain.Validate(cmd); err != nil {
		observability.SendRejectedTotal.WithLabelValues("invalid").Inc()
		return domain.Message{}, err
	}
	if !cmd.Payload.IsValid(p.maxTextLength) {
		observability.SendRejectedTotal.WithLabelValues("invalid").Inc()
		return domain.Message{}, fmt.Errorf("%w: payload must be non empty UTF-8 text of at most %d bytes",
			errors.ErrInvalidCommand, p.maxTextLength)
	}
	payload := p.filter.Filter(cmd.Payload)

	pair := domain.NewPair(cmd.FromID, cmd.ToID)
	unlock := p.locks.Lock(pair.Key())
	defer unlock()

	// Earlier messages of this pair must reach the feeds before this one.
	if err := p.drain(ctx, pair); err != nil {
		return domain.Message{}, err
	}

	blocked, err := Retry(ctx, p.retry, p.log, "block_gate", func(ctx context.Context) (bool, error) {
		return p.gate.IsBlocked(ctx, cmd.ToID, cmd.FromID)
	})
	if err != nil {
		return domain.Message{}, err
	}
	if blocked {
		observability.SendRejectedTotal.WithLabelValues("blocked").Inc()
		p.log.Debug("Send rejected, recipient blocked sender", "from", cmd.FromID, "to", cmd.ToID)
		return domain.Message{}, errors.ErrSendRejectedBlocked
	}

	at := p.clock.Now()
	message, err := Retry(ctx, p.retry, p.log, "store_append", func(ctx context.Context) (domain.Message, error) {
		return p.store.Append(ctx, cmd.FromID, cmd.ToID, payload, at)
	})
	if err != nil {
		return domain.Message{}, err
	}

	if err := p.fanout(ctx, message); err != nil {
		observability.PartialFanoutTotal.Inc()
		p.log.Warn("Fan-out left pending", "message_id", message.ID, "error", err)
		return message, fmt.Errorf("%w: message %s: %v", errors.ErrPartialFanoutFailure, message.ID, err)
	}
	p.publish(event.MessageSent{Message: message})
	return message, nil
}

// RepairPending walks every pair holding a marker, limit pairs per page, and
// returns how many fan-outs were completed. A pair that fails is skipped until
// the next call so it never starves the pairs behind it.
func (p *Pipeline) RepairPending(ctx context.Context, limit int) (int, error) {
	repaired := 0
	var firstErr error
	var after *domain.Pair
	for {
		pairs, err := p.outbox.PendingPairs(ctx, after, limit)
		if err != nil {
			return repaired, err
		}
		for _, pair := range pairs {
			n, err := p.drainLocked(ctx, pair)
			repaired += n
			if err != nil {
				p.log.Warn("Fan-out repair failed, skipping pair", "pair", pair.Key(), "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		if limit <= 0 || len(pairs) < limit {
			return repaired, firstErr
		}
		after = &pairs[len(pairs)-1]
	}
}

func (p *Pipeline) drainLocked(ctx context.Context, pair domain.Pair) (int, error) {
	unlock := p.locks.Lock(pair.Key())
	defer unlock()
	return p.repairPair(ctx, pair)
}

func (p *Pipeline) drain(ctx context.Context, pair domain.Pair) error {
	_, err := p.repairPair(ctx, pair)
	return err
}

// repairPair must be called with the pair lock held.
// Markers are replayed in key order and the first failure stops the replay.
func (p *Pipeline) repairPair(ctx context.Context, pair domain.Pair) (int, error) {
	pendings, err := p.outbox.Pending(ctx, &pair, 0)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, pending := range pendings {
		if err := p.repairOne(ctx, pending); err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}

func (p *Pipeline) repairOne(ctx context.Context, pending domain.PendingFanout) error {
	message, err := Retry(ctx, p.retry, p.log, "store_get", func(ctx context.Context) (domain.Message, error) {
		return p.store.Get(ctx, pending.MessageID)
	})
	if errors.Is(err, errors.ErrNotFound) {
		// The marker is written with the message, so this is a corrupted marker.
		p.log.Error("Outbox marker without message, dropping it", "message_id", pending.MessageID)
		return p.outbox.Clear(ctx, pending)
	}
	if err != nil {
		return err
	}
	if err := p.fanout(ctx, message); err != nil {
		return err
	}
	observability.FanoutRepairedTotal.Inc()
	p.log.Info("Fan-out repaired", "message_id", message.ID)
	p.publish(event.FanoutRepaired{Message: message, At: p.clock.Now()})
	return nil
}

// fanout appends the message to the sender then the recipient partition, clears
// the marker once both hold it and wakes the watchers of each written partition.
func (p *Pipeline) fanout(ctx context.Context, message domain.Message) error {
	partitions := []domain.Partition{
		{Owner: message.FromID, Counterpart: message.ToID},
		{Owner: message.ToID, Counterpart: message.FromID},
	}
	for _, partition := range partitions {
		_, err := Retry(ctx, p.retry, p.log, "feed_append", func(ctx context.Context) (domain.FeedEntry, error) {
			return p.feed.Append(ctx, partition.Owner, partition.Counterpart, message.ID)
		})
		if err != nil {
			return fmt.Errorf("partition %s: %w", partition.Key(), err)
		}
		p.registry.Notify(partition)
	}

	pending := domain.PendingFanout{MessageID: message.ID, FromID: message.FromID, ToID: message.ToID}
	if err := p.outbox.Clear(ctx, pending); err != nil {
		// Both feeds hold the message, replaying the marker later is harmless.
		p.log.Warn("Outbox marker not cleared", "message_id", message.ID, "error", err)
	}
	return nil
}
