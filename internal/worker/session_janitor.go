package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionPruner drops index entries of sessions that have expired.
type SessionPruner interface {
	PruneIndex(ctx context.Context) (int, error)
}

// SessionJanitor periodically sweeps the per-account session indexes.
type SessionJanitor struct {
	pruner   SessionPruner
	interval time.Duration
	logger   *zap.Logger
}

// NewSessionJanitor builds a janitor. A non-positive interval disables it.
func NewSessionJanitor(pruner SessionPruner, interval time.Duration, logger *zap.Logger) *SessionJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionJanitor{pruner: pruner, interval: interval, logger: logger}
}

// Run sweeps on every tick until ctx is cancelled.
func (j *SessionJanitor) Run(ctx context.Context) {
	if j == nil || j.pruner == nil || j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("session janitor started", zap.Duration("interval", j.interval))
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *SessionJanitor) sweep(ctx context.Context) {
	n, err := j.pruner.PruneIndex(ctx)
	if err != nil {
		j.logger.Warn("session index sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("session index swept", zap.Int("pruned", n))
	}
}
