package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/focuslog/focuslog/internal/focus/lock"
	"github.com/focuslog/focuslog/internal/focus/schema"
	"github.com/focuslog/focuslog/internal/logging"
)

// Config wires an Orchestrator to its collaborators.
type Config struct {
	Readiness Readiness
	Lock      Locker
	Open      Opener
	Extractor Extractor
	Pending   PendingCache

	// Reporter receives every result. Optional.
	Reporter Reporter

	// Logger is optional; nil discards.
	Logger *logging.Logger

	// AutoMigrate runs pending migrations under the lock instead of
	// refusing to sync when the store is not ready.
	AutoMigrate bool

	// Now overrides the clock used for Elapsed.
	Now func() time.Time
}

// Orchestrator runs synchronizations. Concurrent Runs are serialized by the
// lock: the loser returns StatusAlreadyRunning without touching the store.
type Orchestrator struct {
	cfg    Config
	logger *logging.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logging.OrNop(cfg.Logger).WithComponent("sync"),
	}
}

// Run performs one synchronization. The returned error is non-nil only when
// the result status is StatusFailed, in which case it equals result.Err.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) (*Result, error) {
	start := o.cfg.Now()
	res := &Result{Trigger: trigger}

	o.run(ctx, res)

	res.Elapsed = o.cfg.Now().Sub(start)
	if res.Err != nil {
		res.Status = StatusFailed
		if res.Reason == "" {
			res.Reason = res.Err.Error()
		}
	}

	o.log(res)
	if o.cfg.Reporter != nil {
		o.cfg.Reporter.Report(ctx, res)
	}

	return res, res.Err
}

func (o *Orchestrator) run(ctx context.Context, res *Result) {
	migrate := false
	if !o.cfg.Readiness.IsReady() {
		if !o.cfg.AutoMigrate {
			res.Status = StatusNotReady
			res.Reason = o.cfg.Readiness.ReasonNotReady()
			return
		}
		migrate = true
	}

	ok, err := o.cfg.Lock.TryLock()
	if err != nil {
		res.Err = fmt.Errorf("failed to acquire sync lock: %w", err)
		return
	}
	if !ok {
		res.Status = StatusAlreadyRunning
		res.Reason = lock.ErrLocked.Error()
		return
	}
	defer func() {
		if err := o.cfg.Lock.Unlock(); err != nil {
			o.logger.Error("failed to release sync lock", "error", err)
		}
	}()

	store, err := o.cfg.Open(ctx)
	if err != nil {
		res.Err = fmt.Errorf("failed to open session store: %w", err)
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			o.logger.Warn("failed to close session store", "error", err)
		}
	}()

	if migrate {
		if !o.migrate(ctx, store, res) {
			return
		}
	}

	batch, err := o.cfg.Extractor.Extract(ctx)
	if err != nil {
		res.Err = err
		return
	}
	res.Since = batch.Since
	res.Until = batch.Until

	if err := o.fold(ctx, store, batch.Events, res); err != nil {
		res.Err = err
		if rerr := o.cfg.Extractor.Rewind(batch); rerr != nil {
			o.logger.Error("failed to rewind extraction cursor", "error", rerr)
		}
		return
	}

	res.Status = StatusCompleted
}

// migrate brings the store schema up to date and re-checks readiness.
func (o *Orchestrator) migrate(ctx context.Context, store Store, res *Result) bool {
	n, err := store.Migrate(ctx)
	if err != nil {
		res.Err = fmt.Errorf("failed to migrate session store: %w", err)
		return false
	}
	if err := o.cfg.Readiness.MarkApplied(n); err != nil {
		res.Err = err
		return false
	}
	res.Migrated = n
	o.logger.Info("migrated session store", "migration", n)

	if !o.cfg.Readiness.IsReady() {
		res.Status = StatusNotReady
		res.Reason = o.cfg.Readiness.ReasonNotReady()
		return false
	}
	return true
}

// fold applies events in order. Only store and cache failures are returned.
func (o *Orchestrator) fold(ctx context.Context, store Store, events []schema.Event, res *Result) error {
	for _, ev := range events {
		res.Events++

		switch e := ev.(type) {
		case schema.StartEvent:
			res.Starts++
			p := &schema.PendingSession{Goal: e.Goal, Start: e.Start}
			if err := p.Validate(); err != nil {
				res.Skipped++
				o.logger.Warn("skipping start event", "event", e.String(), "error", err)
				continue
			}
			if err := o.cfg.Pending.Set(p); err != nil {
				return fmt.Errorf("failed to cache pending session: %w", err)
			}

		case schema.SummaryEvent:
			res.Summaries++
			p, ok, err := o.cfg.Pending.Get()
			if err != nil {
				return fmt.Errorf("failed to read pending session: %w", err)
			}
			if !ok {
				res.Unmatched++
				o.logger.Warn("summary without a pending session", "duration", e.Duration)
				continue
			}

			session := p.Complete(e.Duration)
			if err := session.Validate(); err != nil {
				res.Skipped++
				o.logger.Warn("skipping invalid session", "goal", session.Goal, "error", err)
				if err := o.cfg.Pending.Clear(); err != nil {
					return fmt.Errorf("failed to clear pending session: %w", err)
				}
				continue
			}
			inserted, err := store.InsertSession(ctx, session)
			if err != nil {
				return fmt.Errorf("failed to store session %q: %w", session.Goal, err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Duplicates++
			}

			if err := o.cfg.Pending.Clear(); err != nil {
				return fmt.Errorf("failed to clear pending session: %w", err)
			}

		default:
			res.Skipped++
			o.logger.Warn("skipping unknown event", "event", ev.String())
		}
	}
	return nil
}

func (o *Orchestrator) log(res *Result) {
	attrs := []any{
		"trigger", res.Trigger.String(),
		"status", string(res.Status),
		"events", res.Events,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"unmatched", res.Unmatched,
		"elapsed", res.Elapsed,
	}

	switch res.Status {
	case StatusCompleted:
		o.logger.Info("sync completed", attrs...)
	case StatusAlreadyRunning:
		o.logger.Info("sync skipped", append(attrs, "reason", res.Reason)...)
	case StatusNotReady:
		o.logger.Warn("sync refused", append(attrs, "reason", res.Reason)...)
	default:
		o.logger.Error("sync failed", append(attrs, "error", res.Err)...)
	}
}
