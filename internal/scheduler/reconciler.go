// Package scheduler runs periodic maintenance next to the bot.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultGrace leaves in-flight approvals alone long enough to finish.
	DefaultGrace     = 2 * time.Minute
	DefaultBatchSize = 100
)

// Sweeper repairs approved applications that never got their match.
type Sweeper interface {
	Reconcile(ctx context.Context, grace time.Duration, limit int) (int, error)
}

type Reconciler struct {
	sweeper  Sweeper
	interval time.Duration
	grace    time.Duration
	batch    int
	logger   *zap.Logger
}

func New(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		sweeper:  sweeper,
		interval: interval,
		grace:    DefaultGrace,
		batch:    DefaultBatchSize,
		logger:   logger,
	}
}

// Start sweeps once immediately and then every interval until ctx ends.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started",
		zap.Duration("interval", r.interval),
		zap.Duration("grace", r.grace),
	)

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps batches until one comes back short, so a backlog drains in
// a single tick.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	total := 0

	for ctx.Err() == nil {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		repaired, err := r.sweeper.Reconcile(sweepCtx, r.grace, r.batch)
		cancel()

		if err != nil {
			r.logger.Error("reconcile sweep failed", zap.Error(err))
			break
		}

		total += repaired
		if repaired < r.batch {
			break
		}
	}

	if total > 0 {
		r.logger.Info("reconcile sweep finished", zap.Int("repaired", total))
	} else {
		r.logger.Debug("reconcile sweep found nothing")
	}
	return total
}
