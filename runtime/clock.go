package runtime

import (
	"sync"
	"time"
)

// MonotonicClock never hands out the same instant twice, even when the wall clock
// stalls or steps backwards. Two calls from any goroutines are strictly ordered.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Round(0) strips the monotonic reading so the value survives a round trip through storage.
	now := c.now().UTC().Round(0)
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}
