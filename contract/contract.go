//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"buddychat/domain"
	"buddychat/domain/event"
	"context"
	"iter"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageStore is the authority of record. Records are write-once.
type MessageStore interface {
	Append(ctx context.Context, from, to domain.UserID, payload domain.Payload, at time.Time) (domain.Message, error)
	Get(ctx context.Context, id domain.MessageID) (domain.Message, error)
	Scan(ctx context.Context, fn func(domain.Message) error) error
}

// FanoutOutbox tracks fan-outs that are not yet reflected in both partitions.
type FanoutOutbox interface {
	Pending(ctx context.Context, pair *domain.Pair, limit int) ([]domain.PendingFanout, error)
	PendingPairs(ctx context.Context, after *domain.Pair, limit int) ([]domain.Pair, error)
	Clear(ctx context.Context, pending domain.PendingFanout) error
}

// FeedIndex is the derived per-owner, per-counterpart list of message ids.
type FeedIndex interface {
	Append(ctx context.Context, owner, counterpart domain.UserID, id domain.MessageID) (domain.FeedEntry, error)
	ListSince(ctx context.Context, owner, counterpart domain.UserID, cursor domain.Cursor, limit int) ([]domain.FeedEntry, error)
	Entries(ctx context.Context, owner, counterpart domain.UserID, cursor domain.Cursor) iter.Seq2[domain.FeedEntry, error]
	Contains(ctx context.Context, owner, counterpart domain.UserID, id domain.MessageID) (bool, error)
	Counterparts(ctx context.Context, owner domain.UserID) ([]domain.UserID, error)
}

// BlockGate answers "does owner refuse messages from other".
type BlockGate interface {
	IsBlocked(ctx context.Context, owner, other domain.UserID) (bool, error)
	BlockedSince(ctx context.Context, owner, other domain.UserID) (time.Time, bool, error)
}

// BlockWriter is the write path used by the relationship component.
type BlockWriter interface {
	Block(ctx context.Context, owner, other domain.UserID, at time.Time) error
	Unblock(ctx context.Context, owner, other domain.UserID) error
}

// Watcher is woken up each time its partition receives a new entry.
type Watcher interface {
	Wake()
}

type IRegistry interface {
	Subscribe(partition domain.Partition, watcherID string, watcher Watcher)
	Unsubscribe(partition domain.Partition, watcherID string)
	Notify(partition domain.Partition)
	Count() int
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// OnMessage receives resolved messages in feed order.
// Returning an error closes the subscription.
type OnMessage func(ctx context.Context, msg domain.DeliveredMessage) error
