package repositories

import (
	"buddychat/domain"
	"buddychat/errors"
	"context"
	"encoding/binary"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const (
	maxConflictRetries = 16
	entriesPageSize    = 128
)

// FeedRepository is the fan-out index. Each partition keeps its own sequence,
// so positions are strictly increasing inside a partition and meaningless across them.
type FeedRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFeedRepository(db *badger.DB, log *slog.Logger) FeedRepository {
	return FeedRepository{db: db, log: log}
}

// Append adds id at the tail of the partition (owner, counterpart).
// Appending an id already present returns the existing entry untouched.
// Concurrent writers on the same partition are serialized by badger's
// optimistic concurrency: the loser gets ErrConflict and replays.
func (f FeedRepository) Append(ctx context.Context, owner, counterpart domain.UserID, id domain.MessageID) (domain.FeedEntry, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.FeedEntry{}, err
		}
		entry, err := f.append(owner, counterpart, id)
		if errors.Is(err, badger.ErrConflict) {
			f.log.Debug("Feed append conflict, replaying", "owner", owner, "counterpart", counterpart, "attempt", attempt)
			continue
		}
		if err != nil {
			return domain.FeedEntry{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		return entry, nil
	}
	return domain.FeedEntry{}, fmt.Errorf("%w: too many conflicts on %s:%s", errors.ErrStoreUnavailable, owner, counterpart)
}

func (f FeedRepository) append(owner, counterpart domain.UserID, id domain.MessageID) (domain.FeedEntry, error) {
	entry := domain.FeedEntry{Owner: owner, Counterpart: counterpart, MessageID: id}
	err := f.db.Update(func(txn *badger.Txn) error {
		existing, err := readUint64(txn, feedRefKey(owner, counterpart, id))
		switch {
		case err == nil:
			entry.Position = domain.Cursor(existing)
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		last, err := readUint64(txn, feedSeqKey(owner, counterpart))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		position := last + 1
		entry.Position = domain.Cursor(position)

		if err := txn.Set(feedKey(owner, counterpart, entry.Position), []byte(id)); err != nil {
			return err
		}
		if err := txn.Set(feedRefKey(owner, counterpart, id), encodeUint64(position)); err != nil {
			return err
		}
		return txn.Set(feedSeqKey(owner, counterpart), encodeUint64(position))
	})
	return entry, err
}

// ListSince returns at most limit entries whose position is strictly greater than cursor.
// A limit <= 0 means no limit.
func (f FeedRepository) ListSince(ctx context.Context, owner, counterpart domain.UserID, cursor domain.Cursor, limit int) ([]domain.FeedEntry, error) {
	// Nothing sorts after the last position.
	if uint64(cursor) == math.MaxUint64 {
		return nil, ctx.Err()
	}
	var entries []domain.FeedEntry
	err := f.db.View(func(txn *badger.Txn) error {
		prefix := FeedPartitionPrefix(owner, counterpart)
		prefixLen := len(prefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(feedKey(owner, counterpart, cursor+1)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(entries) == limit {
				break
			}
			item := it.Item()
			position, err := strconv.ParseUint(string(item.Key()[prefixLen:]), 10, 64)
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, domain.FeedEntry{
				Owner:       owner,
				Counterpart: counterpart,
				MessageID:   domain.MessageID(value),
				Position:    domain.Cursor(position),
			})
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return entries, nil
}

// Entries walks the partition from cursor, page by page, so a long feed never sits in memory.
// Entries appended while iterating are visited as well.
func (f FeedRepository) Entries(ctx context.Context, owner, counterpart domain.UserID, cursor domain.Cursor) iter.Seq2[domain.FeedEntry, error] {
	return func(yield func(domain.FeedEntry, error) bool) {
		for {
			page, err := f.ListSince(ctx, owner, counterpart, cursor, entriesPageSize)
			if err != nil {
				yield(domain.FeedEntry{}, err)
				return
			}
			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
				cursor = entry.Position
			}
			if len(page) < entriesPageSize {
				return
			}
		}
	}
}

func (f FeedRepository) Contains(ctx context.Context, owner, counterpart domain.UserID, id domain.MessageID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := f.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(feedRefKey(owner, counterpart, id))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
}

// Counterparts lists every user owner has at least one feed entry with, in lexicographic order.
func (f FeedRepository) Counterparts(ctx context.Context, owner domain.UserID) ([]domain.UserID, error) {
	var counterparts []domain.UserID
	err := f.db.View(func(txn *badger.Txn) error {
		prefix := feedSeqOwnerPrefix(owner)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			counterparts = append(counterparts, domain.UserID(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return counterparts, nil
}

func readUint64(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if err != nil {
		return 0, err
	}
	var v uint64
	err = item.Value(func(value []byte) error {
		if len(value) != 8 {
			return fmt.Errorf("corrupted counter at %s", key)
		}
		v = binary.BigEndian.Uint64(value)
		return nil
	})
	return v, err
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
