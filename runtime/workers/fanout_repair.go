package workers

import (
	"context"
	"log/slog"
	"time"
)

const repairBatchSize = 256

// FanoutRepairer completes fan-outs whose outbox marker is still present.
type FanoutRepairer interface {
	RepairPending(ctx context.Context, limit int) (int, error)
}

// FanoutRepairWorker periodically drains the fan-out outbox.
// It runs once right away so markers left by a crash are handled at startup.
type FanoutRepairWorker struct {
	log      *slog.Logger
	repairer FanoutRepairer
	interval time.Duration
}

func NewFanoutRepairWorker(log *slog.Logger, repairer FanoutRepairer, interval time.Duration) *FanoutRepairWorker {
	return &FanoutRepairWorker{log: log, repairer: repairer, interval: interval}
}

func (w *FanoutRepairWorker) Run(ctx context.Context) error {
	w.log.Info("Starting fan-out repair worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.repair(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *FanoutRepairWorker) repair(ctx context.Context) {
	for {
		repaired, err := w.repairer.RepairPending(ctx, repairBatchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Warn("Fan-out repair incomplete, will retry", "repaired", repaired, "error", err)
			}
			return
		}
		if repaired > 0 {
			w.log.Info("Pending fan-outs repaired", "count", repaired)
		}
		if repaired < repairBatchSize {
			return
		}
	}
}
