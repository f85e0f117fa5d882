// Package projection builds local timelines from observed feed entries.
// Handles ordering and deduplication.
// Does not emit events or interact with UI directly.
package projection

import (
	"buddychat/domain"
	"slices"
	"sync"
)

// Timeline holds the local view of one conversation, keyed by feed position.
// History pages and live entries may overlap; each position is kept once.
type Timeline struct {
	mu       sync.Mutex
	Owner    domain.UserID
	With     domain.UserID
	messages []domain.DeliveredMessage
	seen     map[domain.MessageID]struct{}
}

func NewTimeline(owner, with domain.UserID) *Timeline {
	return &Timeline{
		Owner: owner,
		With:  with,
		seen:  make(map[domain.MessageID]struct{}),
	}
}

// Consume adds entries and reports those that were new, in position order.
func (t *Timeline) Consume(entries ...domain.DeliveredMessage) []domain.DeliveredMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []domain.DeliveredMessage
	for _, entry := range entries {
		if _, ok := t.seen[entry.Message.ID]; ok {
			continue
		}
		t.seen[entry.Message.ID] = struct{}{}
		added = append(added, entry)
	}
	if len(added) == 0 {
		return nil
	}
	t.messages = append(t.messages, added...)
	slices.SortFunc(t.messages, byPosition)
	slices.SortFunc(added, byPosition)
	return added
}

// Cursor is the last position seen, suitable to resume a subscription.
func (t *Timeline) Cursor() domain.Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return 0
	}
	return t.messages[len(t.messages)-1].Position
}

func (t *Timeline) Messages() []domain.DeliveredMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}

func byPosition(a, b domain.DeliveredMessage) int {
	switch {
	case a.Position < b.Position:
		return -1
	case a.Position > b.Position:
		return 1
	default:
		return 0
	}
}
