package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"context"
	"log/slog"
	"slices"
	"strings"
)

// Reindexer rebuilds the fan-out index from the message store.
// Feed appends are idempotent, so running it over a partial or complete index is safe.
type Reindexer struct {
	log   *slog.Logger
	store contract.MessageStore
	feed  contract.FeedIndex
}

func NewReindexer(log *slog.Logger, store contract.MessageStore, feed contract.FeedIndex) *Reindexer {
	return &Reindexer{log: log, store: store, feed: feed}
}

// ReindexReport sums up a rebuild.
type ReindexReport struct {
	Messages int
	Appended int
	// Feed entries that point to no stored message.
	Dangling int
}

// Rebuild replays every message ordered by timestamp then id and appends it
// to both partitions.
func (r *Reindexer) Rebuild(ctx context.Context) (ReindexReport, error) {
	var messages []domain.Message
	err := r.store.Scan(ctx, func(m domain.Message) error {
		messages = append(messages, m)
		return nil
	})
	if err != nil {
		return ReindexReport{}, err
	}
	slices.SortFunc(messages, func(a, b domain.Message) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})

	report := ReindexReport{Messages: len(messages)}
	stored := make(map[domain.MessageID]struct{}, len(messages))
	var partitions []domain.Partition
	seen := make(map[domain.Partition]struct{})
	for _, m := range messages {
		stored[m.ID] = struct{}{}
		for _, partition := range []domain.Partition{
			{Owner: m.FromID, Counterpart: m.ToID},
			{Owner: m.ToID, Counterpart: m.FromID},
		} {
			if _, ok := seen[partition]; !ok {
				seen[partition] = struct{}{}
				partitions = append(partitions, partition)
			}
			present, err := r.feed.Contains(ctx, partition.Owner, partition.Counterpart, m.ID)
			if err != nil {
				return report, err
			}
			if present {
				continue
			}
			if _, err := r.feed.Append(ctx, partition.Owner, partition.Counterpart, m.ID); err != nil {
				return report, err
			}
			report.Appended++
		}
	}

	for _, partition := range partitions {
		for entry, err := range r.feed.Entries(ctx, partition.Owner, partition.Counterpart, 0) {
			if err != nil {
				return report, err
			}
			if _, ok := stored[entry.MessageID]; !ok {
				r.log.Warn("Feed entry without message", "owner", entry.Owner, "counterpart", entry.Counterpart, "position", entry.Position, "message_id", entry.MessageID)
				report.Dangling++
			}
		}
	}
	r.log.Info("Fan-out index rebuilt", "messages", report.Messages, "appended", report.Appended, "dangling", report.Dangling)
	return report, nil
}
