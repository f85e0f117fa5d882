package workers

import (
	"buddychat/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsSource exposes the live figures of the chat core.
type StatsSource interface {
	ActiveSubscriptions() int
	PendingFanouts(ctx context.Context) (int, error)
}

// ProcessStatsWorker samples the process (RSS, CPU, status) and the chat core
// on a fixed interval and records the snapshot for the ops endpoints.
type ProcessStatsWorker struct {
	log        *slog.Logger
	source     StatsSource
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewProcessStatsWorker(log *slog.Logger, source StatsSource,
	monitoring *observability.MonitoringManager, interval time.Duration) *ProcessStatsWorker {
	return &ProcessStatsWorker{log: log, source: source, monitoring: monitoring, interval: interval}
}

func (w *ProcessStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			pending, err := w.source.PendingFanouts(ctx)
			if err != nil {
				w.log.Warn("Failed to count pending fan-outs", "err", err)
			}
			w.monitoring.Record(observability.NodeStats{
				PID:                 pid,
				Status:              status,
				CPUPercent:          cpu,
				RSSBytes:            rss,
				ActiveSubscriptions: w.source.ActiveSubscriptions(),
				PendingFanouts:      pending,
				TakenAt:             time.Now().UTC(),
			})
		}
	}
}

// getSelfStats retrieves memory, CPU and OS status for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
