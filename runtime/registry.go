package runtime

import (
	"buddychat/contract"
	"buddychat/domain"
	"sync"
)

type Set map[string]contract.Watcher

// Registry maps each feed partition to the watchers currently tailing it.
type Registry struct {
	mu       sync.RWMutex
	watchers map[domain.Partition]Set
}

func NewRegistry() *Registry {
	return &Registry{watchers: make(map[domain.Partition]Set)}
}

// GetWatchers returns a snapshot of the watchers of a partition.
// Returns nil if nobody watches it.
func (r *Registry) GetWatchers(partition domain.Partition) []contract.Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.watchers[partition]
	if !ok {
		return nil
	}
	res := make([]contract.Watcher, 0, len(members))
	for _, w := range members {
		res = append(res, w)
	}
	return res
}

// Subscribe registers a watcher for a partition. The partition set is created on the fly.
func (r *Registry) Subscribe(partition domain.Partition, watcherID string, watcher contract.Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.watchers[partition]; !ok {
		r.watchers[partition] = make(Set)
	}
	r.watchers[partition][watcherID] = watcher
}

// Unsubscribe removes a watcher and drops the partition entry once empty
// so the map does not grow with every conversation ever watched.
func (r *Registry) Unsubscribe(partition domain.Partition, watcherID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.watchers[partition]; ok {
		delete(members, watcherID)
		if len(members) == 0 {
			delete(r.watchers, partition)
		}
	}
}

// Notify wakes every watcher of the partition. Wake must not block.
func (r *Registry) Notify(partition domain.Partition) {
	for _, w := range r.GetWatchers(partition) {
		w.Wake()
	}
}

// Count is the number of live watchers across all partitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, members := range r.watchers {
		count += len(members)
	}
	return count
}
