package jobs

import (
	"context"

	"garage-backend/internal/logger"
)

// AbandonStaleCarts marks active carts untouched for longer than the
// configured window as abandoned.
func (jr *JobRunner) AbandonStaleCarts() {
	jr.runWithRecovery("AbandonStaleCarts", func(ctx context.Context) {
		if _, err := jr.abandonStaleCarts(ctx); err != nil {
			logger.Error("Failed to abandon stale carts", "error", err)
		}
	})
}

func (jr *JobRunner) abandonStaleCarts(ctx context.Context) (int, error) {
	cutoff := jr.now().Add(-jr.config.Scheduler.StaleCartAfter())
	n, err := jr.services.Carts.AbandonStale(ctx, cutoff)
	if err != nil {
		return n, err
	}
	logger.Info("Abandoned stale carts", "count", n, "cutoff", cutoff)
	return n, nil
}
