package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

//go:generate mockgen --build_flags=--mod=mod -source=./bridge.go -destination=./test/mock_cycle_observer.go -package test CycleObserver

type CycleObserver interface {
	ObserveCycle(result CycleResult)
}

// Bridge runs reconciliation cycles and keeps the watermark between them. Cycles must not overlap.
type Bridge struct {
	reconciler *Reconciler
	observer   CycleObserver
	logger     *zap.SugaredLogger

	mu          sync.Mutex
	watermark   time.Time
	initialized bool
}

func NewBridge(reconciler *Reconciler, observer CycleObserver, logger *zap.SugaredLogger) *Bridge {
	return &Bridge{
		reconciler: reconciler,
		observer:   observer,
		logger:     logger,
	}
}

// Sync runs one cycle. The watermark is determined from the destination before the first cycle.
func (b *Bridge) Sync(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.initialize(ctx); err != nil {
		b.observer.ObserveCycle(CycleResult{Err: err})
		return err
	}

	result := b.reconciler.Cycle(ctx, b.watermark)
	b.watermark = result.Watermark
	b.observer.ObserveCycle(result)
	return result.Err
}

// DryRun logs the plan of the next cycle without applying it.
func (b *Bridge) DryRun(ctx context.Context) (*Plan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.initialize(ctx); err != nil {
		return nil, err
	}

	plan, err := b.reconciler.Plan(ctx, b.watermark)
	if err != nil {
		return nil, err
	}
	if err := plan.DryRun(ctx); err != nil {
		return nil, err
	}
	return plan, nil
}

func (b *Bridge) Watermark() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.watermark
}

func (b *Bridge) initialize(ctx context.Context) error {
	if b.initialized {
		return nil
	}
	watermark, err := b.reconciler.InitialWatermark(ctx)
	if err != nil {
		return err
	}
	b.watermark = watermark
	b.initialized = true
	return nil
}
