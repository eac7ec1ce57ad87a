package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/focuslog/focuslog/internal/focus/logsource"
	"github.com/focuslog/focuslog/internal/focus/schema"
)

// Trigger identifies what started a run.
type Trigger int

const (
	// TriggerInteractive is a user-started run; every outcome is shown.
	TriggerInteractive Trigger = iota
	// TriggerBackground is a periodic run; only failures are shown.
	TriggerBackground
)

func (t Trigger) String() string {
	switch t {
	case TriggerInteractive:
		return "interactive"
	case TriggerBackground:
		return "background"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// Status is the outcome of a run.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusNotReady       Status = "not_ready"
	StatusAlreadyRunning Status = "already_running"
	StatusFailed         Status = "failed"
)

// Result describes one run.
type Result struct {
	Trigger Trigger `json:"-"`
	Status  Status  `json:"status"`

	// Reason is a human readable explanation for not_ready,
	// already_running and failed outcomes.
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`

	Since time.Time `json:"since,omitzero"`
	Until time.Time `json:"until,omitzero"`

	Events     int `json:"events"`
	Starts     int `json:"starts"`
	Summaries  int `json:"summaries"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Unmatched  int `json:"unmatched"`
	Skipped    int `json:"skipped"`

	// Migrated is the migration applied during this run, 0 if none.
	Migrated int `json:"migrated,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Surface reports whether the result should be shown to the user for its
// trigger. Background runs stay silent unless they failed.
func (r *Result) Surface() bool {
	if r.Trigger == TriggerBackground {
		return r.Status == StatusFailed
	}
	return true
}

// Summary is a one-line description of the result.
func (r *Result) Summary() string {
	switch r.Status {
	case StatusCompleted:
		return fmt.Sprintf("processed %d events: %d new sessions, %d already stored, %d unmatched summaries",
			r.Events, r.Inserted, r.Duplicates, r.Unmatched)
	case StatusNotReady, StatusAlreadyRunning:
		return r.Reason
	default:
		return "sync failed: " + r.Reason
	}
}

// Readiness gates a run on the store schema.
type Readiness interface {
	IsReady() bool
	ReasonNotReady() string
	MarkApplied(n int) error
}

// Locker is a non-blocking mutual exclusion lock.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Store is the session store as seen by a run.
type Store interface {
	InsertSession(ctx context.Context, s *schema.Session) (bool, error)
	Migrate(ctx context.Context) (int, error)
	Close() error
}

// Opener opens the session store. It is only called after the gate passes
// and the lock is held.
type Opener func(ctx context.Context) (Store, error)

// Extractor produces the events of the next window.
type Extractor interface {
	Extract(ctx context.Context) (*logsource.Batch, error)
	Rewind(b *logsource.Batch) error
}

// PendingCache holds the single started-but-unsummarized session.
type PendingCache interface {
	Get() (*schema.PendingSession, bool, error)
	Set(p *schema.PendingSession) error
	Clear() error
}

// Reporter receives the result of every run.
type Reporter interface {
	Report(ctx context.Context, r *Result)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, r *Result)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, r *Result) { f(ctx, r) }

// MultiReporter fans a result out to several reporters.
type MultiReporter []Reporter

// Report calls every non-nil reporter in order.
func (m MultiReporter) Report(ctx context.Context, r *Result) {
	for _, rep := range m {
		if rep != nil {
			rep.Report(ctx, r)
		}
	}
}
