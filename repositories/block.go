package repositories

import (
	"buddychat/domain"
	"buddychat/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BlockRepository stores directed block relations: owner refuses messages from other.
type BlockRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBlockRepository(db *badger.DB, log *slog.Logger) BlockRepository {
	return BlockRepository{db: db, log: log}
}

func (b BlockRepository) IsBlocked(ctx context.Context, owner, other domain.UserID) (bool, error) {
	_, blocked, err := b.BlockedSince(ctx, owner, other)
	return blocked, err
}

// BlockedSince returns when owner blocked other, if it did.
func (b BlockRepository) BlockedSince(ctx context.Context, owner, other domain.UserID) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	var relation storedBlock
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(owner, other))
		if err != nil {
			return err
		}
		return item.Value(relation.UnmarshalWire)
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return time.Time{}, false, nil
	case err != nil:
		return time.Time{}, false, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return relation.At, true, nil
}

// Block is idempotent: blocking twice keeps the first timestamp.
func (b BlockRepository) Block(ctx context.Context, owner, other domain.UserID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bytes, err := storedBlock(domain.BlockRelation{Owner: owner, Other: other, At: at.UTC()}).MarshalWire()
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(blockKey(owner, other))
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(blockKey(owner, other), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	b.log.Debug("Block relation stored", "owner", owner, "other", other)
	return nil
}

func (b BlockRepository) Unblock(ctx context.Context, owner, other domain.UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blockKey(owner, other))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}
