package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then once per interval until ctx ends.
// Runs never overlap: a tick that fires while the task is still running is
// dropped. A panicking task is logged and the schedule continues.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	log := zap.L().With(zap.String("component", "scheduler"), zap.String("task", name))

	t := time.NewTicker(interval)
	defer t.Stop()

	log.Info("schedule started", zap.Duration("interval", interval))
	runOnce(ctx, log, task)

	for {
		select {
		case <-ctx.Done():
			log.Info("schedule stopped")
			return
		case <-t.C:
			runOnce(ctx, log, task)
		}
	}
}

func runOnce(ctx context.Context, log *zap.Logger, task Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := safeRun(ctx, task); err != nil {
		log.Error("task failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	log.Debug("task done", zap.Duration("took", time.Since(start)))
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}
