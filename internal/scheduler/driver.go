package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper closes conversations that have gone quiet.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// DailyRunner publishes the day's due reminders.
type DailyRunner interface {
	RunDailyPass(ctx context.Context, now time.Time) error
}

// Driver owns the single background ticker that feeds the sweeper and the
// daily reminder pass. Keeping one ticker serializes the two jobs so they
// never contend for the same rows.
type Driver struct {
	sweeper Sweeper
	daily   DailyRunner
	tick    time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewDriver constructs a driver. A non-positive tick defaults to one minute.
func NewDriver(sweeper Sweeper, daily DailyRunner, tick time.Duration, now func() time.Time, logger *slog.Logger) *Driver {
	if tick <= 0 {
		tick = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		sweeper: sweeper,
		daily:   daily,
		tick:    tick,
		now:     now,
		logger:  logger,
	}
}

// Run ticks until the context is cancelled. Job failures are logged and the
// loop keeps going; a bad tick must not take the process down.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	d.logger.Info("scheduler started", "tick", d.tick.String())
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

// runOnce executes one tick: the inactivity sweep first, then the daily
// reminder pass.
func (d *Driver) runOnce(ctx context.Context) {
	now := d.now()

	closed, err := d.sweeper.Sweep(ctx, now)
	if err != nil {
		d.logger.Error("inactivity sweep failed", "error", err)
	} else if closed > 0 {
		d.logger.Info("inactivity sweep closed conversations", "count", closed)
	}

	if err := d.daily.RunDailyPass(ctx, now); err != nil {
		d.logger.Error("daily reminder pass failed", "error", err)
	}
}
