package repositories

import (
	"buddychat/domain"
	"buddychat/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// OutboxRepository reads and clears the fan-out markers written by MessageRepository.Append.
type OutboxRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewOutboxRepository(db *badger.DB, log *slog.Logger) OutboxRepository {
	return OutboxRepository{db: db, log: log}
}

// Pending lists markers in key order, restricted to a pair when one is given.
// A limit <= 0 means no limit.
func (o OutboxRepository) Pending(ctx context.Context, pair *domain.Pair, limit int) ([]domain.PendingFanout, error) {
	prefix := []byte(OutboxPrefix)
	if pair != nil {
		prefix = outboxPairPrefix(*pair)
	}
	var pendings []domain.PendingFanout
	err := o.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(pendings) == limit {
				break
			}
			var pending storedPending
			if err := it.Item().Value(pending.UnmarshalWire); err != nil {
				return err
			}
			pendings = append(pendings, domain.PendingFanout(pending))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return pendings, nil
}

// PendingPairs lists the pairs holding at least one marker, in key order,
// strictly after the given pair when one is given. A limit <= 0 means no limit.
func (o OutboxRepository) PendingPairs(ctx context.Context, after *domain.Pair, limit int) ([]domain.Pair, error) {
	prefix := []byte(OutboxPrefix)
	seek := prefix
	if after != nil {
		// Every marker of after shares its pair prefix, so seeking to the next
		// byte value lands on the first marker of the next pair.
		seek = outboxPairPrefix(*after)
		seek[len(seek)-1]++
	}
	var pairs []domain.Pair
	err := o.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var pending storedPending
			if err := it.Item().Value(pending.UnmarshalWire); err != nil {
				return err
			}
			pair := domain.PendingFanout(pending).Pair()
			if len(pairs) > 0 && pairs[len(pairs)-1] == pair {
				continue
			}
			if limit > 0 && len(pairs) == limit {
				break
			}
			pairs = append(pairs, pair)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return pairs, nil
}

// Clear removes a marker. Clearing an absent marker is a no-op.
func (o OutboxRepository) Clear(ctx context.Context, pending domain.PendingFanout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := o.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(outboxKey(pending.Pair(), pending.MessageID))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}
