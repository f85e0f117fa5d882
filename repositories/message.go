package repositories

import (
	"buddychat/domain"
	"buddychat/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// Append assigns a fresh time-ordered id and persists the message together with
// its fan-out marker in a single transaction. Once Append returns, the message
// survives a restart and the marker guarantees both feeds will eventually list it.
func (m MessageRepository) Append(ctx context.Context, from, to domain.UserID, payload domain.Payload, at time.Time) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	message := domain.Message{
		ID:      domain.MessageID(id.String()),
		FromID:  from,
		ToID:    to,
		Payload: payload,
		At:      at.UTC(),
	}
	messageBytes, err := storedMessage(message).MarshalWire()
	if err != nil {
		return domain.Message{}, err
	}
	pending := domain.PendingFanout{MessageID: message.ID, FromID: from, ToID: to}
	pendingBytes, err := storedPending(pending).MarshalWire()
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message.ID), messageBytes); err != nil {
			return err
		}
		return txn.Set(outboxKey(message.Pair(), message.ID), pendingBytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return message, nil
}

func (m MessageRepository) Get(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			message, err = decodeMessage(value)
			return err
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.Message{}, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	case err != nil:
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return message, nil
}

// Scan walks every stored message in key order. Message ids are UUIDv7 so the
// walk is roughly chronological, callers needing a strict order must sort.
func (m MessageRepository) Scan(ctx context.Context, fn func(domain.Message) error) error {
	return m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(MessagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				var err error
				message, err = decodeMessage(value)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(message); err != nil {
				return err
			}
		}
		return nil
	})
}
