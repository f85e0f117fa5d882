package runtime

import (
	"buddychat/domain"
	"buddychat/mocks"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type countingWatcher struct {
	wakes int
}

func (w *countingWatcher) Wake() { w.wakes++ }

func TestRegistry_Subscribe_One_Partition_One_Watcher(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	watcherID := uuid.NewString()
	partition := domain.Partition{Owner: "alice", Counterpart: "bob"}
	watcher := &countingWatcher{}

	// Given nobody watches anything
	req.Empty(registry.watchers)
	req.Zero(registry.Count())

	// When a watcher subscribes a partition
	registry.Subscribe(partition, watcherID, watcher)

	// Then
	req.Len(registry.watchers, 1)
	req.Equal(1, registry.Count())
	req.Len(registry.GetWatchers(partition), 1)
	req.Nil(registry.GetWatchers(partition.Mirror()))
}

func TestRegistry_Notify_Only_Wakes_Watchers_Of_Partition(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	partition := domain.Partition{Owner: "alice", Counterpart: "bob"}
	watcher := &countingWatcher{}
	mirror := &countingWatcher{}

	// Given one watcher on each side of the conversation
	registry.Subscribe(partition, uuid.NewString(), watcher)
	registry.Subscribe(partition.Mirror(), uuid.NewString(), mirror)

	// When only alice's partition changes
	registry.Notify(partition)
	registry.Notify(partition)

	// Then only alice's watcher is woken
	req.Equal(2, watcher.wakes)
	req.Zero(mirror.wakes)
}

func TestRegistry_Unsubscribe_Removes_Empty_Partition(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	partition := domain.Partition{Owner: "alice", Counterpart: "bob"}
	watcher := mocks.NewMockWatcher(ctrl)
	watcherID := uuid.NewString()

	// Given a subscribed watcher that must never be woken afterwards
	watcher.EXPECT().Wake().Times(0)
	registry.Subscribe(partition, watcherID, watcher)

	// When it unsubscribes twice
	registry.Unsubscribe(partition, watcherID)
	registry.Unsubscribe(partition, watcherID)
	registry.Notify(partition)

	// Then the partition entry is gone
	req.Empty(registry.watchers)
	req.Zero(registry.Count())
}
