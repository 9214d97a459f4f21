package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Looper runs a task right after start and then once per interval. Runs never overlap, ticks that
// fall into a run are dropped. A failed run is logged and retried on the next tick.
type Looper struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLooper(name string, interval time.Duration, task Task, logger *zap.SugaredLogger) *Looper {
	return &Looper{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With("looper", name),
	}
}

// Register starts the looper with the application and stops it on shutdown.
func (l *Looper) Register(lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: l.Start,
		OnStop:  l.Stop,
	})
}

// Start runs the loop in the background until Stop is called.
func (l *Looper) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		l.Run(ctx)
	}(l.done)

	l.logger.Infow("started", "interval", l.interval)
	return nil
}

// Stop cancels the loop and waits for the current run to finish or ctx to expire.
func (l *Looper) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		l.logger.Info("stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run blocks until ctx is done.
func (l *Looper) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			l.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Looper) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := l.task(ctx); err != nil {
		l.logger.Errorw("run failed", "duration", time.Since(start), zap.Error(err))
		return
	}
	l.logger.Debugw("run completed", "duration", time.Since(start))
}
