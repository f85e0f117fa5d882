package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// NodeStats is the last snapshot taken by the process stats worker.
type NodeStats struct {
	PID                 int32     `json:"pid"`
	Status              string    `json:"status"`
	CPUPercent          float64   `json:"cpu_percent"`
	RSSBytes            uint64    `json:"rss_bytes"`
	AllocMemMb          uint64    `json:"alloc_mem_mb"`
	NumGC               uint32    `json:"num_gc"`
	Goroutines          int       `json:"goroutines"`
	ActiveSubscriptions int       `json:"active_subscriptions"`
	PendingFanouts      int       `json:"pending_fanouts"`
	TakenAt             time.Time `json:"taken_at"`
}

// MonitoringManager keeps the latest node stats for the ops endpoints.
type MonitoringManager struct {
	log    *slog.Logger
	mu     sync.RWMutex
	latest NodeStats
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

// Record completes the snapshot with Go runtime figures and keeps it.
func (mm *MonitoringManager) Record(stats NodeStats) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC
	stats.Goroutines = runtime.NumGoroutine()

	mm.mu.Lock()
	mm.latest = stats
	mm.mu.Unlock()

	mm.log.Debug("Stats updated",
		"rss_bytes", stats.RSSBytes,
		"cpu_percent", stats.CPUPercent,
		"subscriptions", stats.ActiveSubscriptions,
		"pending_fanouts", stats.PendingFanouts,
	)
}

func (mm *MonitoringManager) GetLatest() NodeStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}
