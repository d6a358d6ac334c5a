package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reporter periodically flushes the accumulator to the durable store. This
// is the only path that persists channel activity, so the interval bounds
// how much message-count signal a crash can lose.
type Reporter struct {
	acc      *Accumulator
	interval time.Duration
	logger   *zap.Logger
}

// NewReporter creates a reporter flushing on the given interval.
func NewReporter(acc *Accumulator, interval time.Duration, logger *zap.Logger) *Reporter {
	return &Reporter{
		acc:      acc,
		interval: interval,
		logger:   logger.Named("reporter"),
	}
}

// Run checkpoints on each tick until the context is cancelled, then writes
// one final checkpoint so shutdown does not discard the last interval.
// Persistence failures are logged and the loop keeps going; in-memory
// state stays authoritative until a later checkpoint succeeds.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Metrics reporter started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			if err := r.acc.Checkpoint(); err != nil {
				r.logger.Error("Final metrics checkpoint failed", zap.Error(err))
			}
			r.logger.Info("Metrics reporter stopped")
			return
		case <-ticker.C:
			if err := r.acc.Checkpoint(); err != nil {
				r.logger.Error("Metrics checkpoint failed", zap.Error(err))
			}
		}
	}
}
