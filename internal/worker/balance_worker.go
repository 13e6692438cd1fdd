package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

const balanceLockKey = "complaint-balance"

// Balancer is the part of the assignment engine the worker drives.
type Balancer interface {
	BalanceWorkload(ctx context.Context, actor domain.Actor) (*domain.BalanceReport, error)
}

// BalanceWorker runs workload balancing on a fixed interval. A lock keeps
// replicas from balancing at the same time.
type BalanceWorker struct {
	balancer Balancer
	locker   persistence.Locker
	actor    domain.Actor
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewBalanceWorker constructs the worker.
func NewBalanceWorker(balancer Balancer, locker persistence.Locker, actor domain.Actor, interval, lockTTL time.Duration, logger *zap.Logger) *BalanceWorker {
	if lockTTL <= 0 {
		lockTTL = interval
	}
	return &BalanceWorker{
		balancer: balancer,
		locker:   locker,
		actor:    actor,
		interval: interval,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (w *BalanceWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("balance worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("balance worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("workload balancing failed", zap.Error(err))
			}
		}
	}
}

// RunOnce balances if the lock is free. It returns a nil report when
// another holder owns the lock.
func (w *BalanceWorker) RunOnce(ctx context.Context) (*domain.BalanceReport, error) {
	lock, err := w.locker.Acquire(ctx, balanceLockKey, w.lockTTL)
	if errors.Is(err, persistence.ErrLockNotAcquired) {
		w.logger.Debug("balance lock held elsewhere; skipping run")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			w.logger.Warn("release balance lock", zap.Error(err))
		}
	}()

	return w.balancer.BalanceWorkload(ctx, w.actor)
}
