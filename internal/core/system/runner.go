package system

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StepFunc advances one loop participant by dt.
type StepFunc func(dt time.Duration) error

type step struct {
	name string
	fn   StepFunc
}

// Runner executes registered steps in registration order each tick.
type Runner struct {
	steps []step
	ticks uint64
	log   *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		steps: make([]step, 0, 4),
		log:   log,
	}
}

func (r *Runner) Register(name string, fn StepFunc) {
	r.steps = append(r.steps, step{name: name, fn: fn})
}

// Tick runs every step once. The first failing step aborts the tick.
func (r *Runner) Tick(dt time.Duration) error {
	r.ticks++
	for _, s := range r.steps {
		if err := s.fn(dt); err != nil {
			return fmt.Errorf("step %s: %w", s.name, err)
		}
	}
	return nil
}

// Ticks returns the number of ticks started so far.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Run ticks at a fixed rate with dt = rate until ctx is done or a tick fails.
// Cancellation is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context, rate time.Duration) error {
	if rate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %s", rate)
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	r.log.Info("tick loop started", zap.Duration("tick", rate), zap.Int("steps", len(r.steps)))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("tick loop stopped", zap.Uint64("ticks", r.ticks))
			return nil
		case <-ticker.C:
			if err := r.Tick(rate); err != nil {
				return err
			}
		}
	}
}
