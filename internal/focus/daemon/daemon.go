// Package daemon runs background synchronizations on a fixed interval.
//
// The daemon:
// 1. Runs a background sync on start (optional)
// 2. Runs a background sync every interval
// 3. Accepts interval changes while running
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	focussync "github.com/focuslog/focuslog/internal/focus/sync"
	"github.com/focuslog/focuslog/internal/logging"
)

// DefaultInterval is the sync period when none is configured.
const DefaultInterval = 5 * time.Minute

// Runner performs one synchronization.
type Runner interface {
	Run(ctx context.Context, trigger focussync.Trigger) (*focussync.Result, error)
}

// Config holds configuration for the daemon.
type Config struct {
	// Interval between background syncs.
	Interval time.Duration

	// RunOnStart triggers a sync immediately instead of waiting one interval.
	RunOnStart bool

	// Logger for daemon activity; nil discards.
	Logger *logging.Logger
}

// Daemon triggers background syncs periodically.
type Daemon struct {
	runner Runner
	config Config
	logger *logging.Logger

	intervalCh chan time.Duration
	kickCh     chan struct{}

	mu       sync.Mutex
	running  bool
	interval time.Duration
	runs     int
	last     *focussync.Result
}

// New creates a Daemon. Use Start to begin.
func New(runner Runner, config Config) (*Daemon, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if config.Interval < 0 {
		return nil, fmt.Errorf("interval must not be negative: %s", config.Interval)
	}
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}

	return &Daemon{
		runner:     runner,
		config:     config,
		logger:     logging.OrNop(config.Logger).WithComponent("daemon"),
		intervalCh: make(chan time.Duration, 1),
		kickCh:     make(chan struct{}, 1),
		interval:   config.Interval,
	}, nil
}

// Start runs the sync loop. It blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return errors.New("daemon already running")
	}
	d.running = true
	interval := d.interval
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.logger.Info("starting daemon", "interval", interval)

	if d.config.RunOnStart {
		d.runOnce(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped", "runs", d.Runs())
			return nil

		case next := <-d.intervalCh:
			ticker.Reset(next)
			d.logger.Info("sync interval changed", "interval", next)

		case <-d.kickCh:
			d.runOnce(ctx)

		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

// SetInterval changes the sync period. It takes effect from the next tick.
func (d *Daemon) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive: %s", interval)
	}

	d.mu.Lock()
	if interval == d.interval {
		d.mu.Unlock()
		return nil
	}
	d.interval = interval
	d.mu.Unlock()

	// Keep only the latest pending change.
	select {
	case <-d.intervalCh:
	default:
	}
	d.intervalCh <- interval
	return nil
}

// Interval returns the current sync period.
func (d *Daemon) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// Kick requests an immediate sync. Requests made while one is already
// queued are merged.
func (d *Daemon) Kick() {
	select {
	case d.kickCh <- struct{}{}:
	default:
	}
}

// Runs returns the number of completed run attempts.
func (d *Daemon) Runs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runs
}

// LastResult returns the result of the most recent run, or nil.
func (d *Daemon) LastResult() *focussync.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *Daemon) runOnce(ctx context.Context) {
	res, err := d.runner.Run(ctx, focussync.TriggerBackground)
	if err != nil {
		d.logger.Error("background sync failed", "error", err)
	}

	d.mu.Lock()
	d.runs++
	d.last = res
	d.mu.Unlock()
}
