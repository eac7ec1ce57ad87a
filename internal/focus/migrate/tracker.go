// Package migrate decides whether the session store schema is ready for a
// sync, and moves sessions in and out of the store as JSONL.
package migrate

import (
	"errors"
	"fmt"

	"github.com/focuslog/focuslog/internal/focus/db"
	"github.com/focuslog/focuslog/internal/focus/state"
)

// ErrNotReady is wrapped by Check when the store schema is not at the
// packaged version.
var ErrNotReady = errors.New("session store not ready")

// Readiness is the comparison behind a readiness decision.
type Readiness struct {
	// Latest is the highest packaged migration number.
	Latest int
	// Applied is the cached last-applied migration number.
	Applied int
	// HasApplied is false when no marker has been cached yet.
	HasApplied bool
}

// Ready reports whether the cached marker matches the packaged set.
func (r Readiness) Ready() bool {
	return r.HasApplied && r.Applied == r.Latest
}

// Reason explains why the store is not ready; empty when it is.
func (r Readiness) Reason() string {
	switch {
	case !r.HasApplied:
		return "focuslog has not been initialized yet; run `focuslog init` first"
	case r.Applied < r.Latest:
		return fmt.Sprintf("the session store needs an update (migration %d of %d applied); run `focuslog init`", r.Applied, r.Latest)
	case r.Applied > r.Latest:
		return fmt.Sprintf("the session store was migrated by a newer focuslog (migration %d, this build knows %d)", r.Applied, r.Latest)
	default:
		return ""
	}
}

// Tracker compares the packaged migration set with the marker cached in the
// state store. It never opens the session store and never runs migrations.
type Tracker struct {
	state  state.Store
	latest func() (int, error)
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLatest overrides how the highest available migration is found.
func WithLatest(fn func() (int, error)) TrackerOption {
	return func(t *Tracker) { t.latest = fn }
}

// NewTracker returns a Tracker reading its marker from store.
func NewTracker(store state.Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		state:  store,
		latest: db.LatestMigration,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Readiness reads the packaged and cached migration numbers.
func (t *Tracker) Readiness() (Readiness, error) {
	latest, err := t.latest()
	if err != nil {
		return Readiness{}, fmt.Errorf("failed to read packaged migrations: %w", err)
	}

	applied, ok, err := state.LastMigration(t.state)
	if err != nil {
		return Readiness{}, fmt.Errorf("failed to read migration marker: %w", err)
	}

	return Readiness{Latest: latest, Applied: applied, HasApplied: ok}, nil
}

// Check returns nil when the store is ready, or an error wrapping
// ErrNotReady that carries the reason.
func (t *Tracker) Check() error {
	r, err := t.Readiness()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if !r.Ready() {
		return fmt.Errorf("%w: %s", ErrNotReady, r.Reason())
	}
	return nil
}

// IsReady reports whether the store schema is at the packaged version.
func (t *Tracker) IsReady() bool {
	return t.Check() == nil
}

// ReasonNotReady explains why IsReady is false; empty when ready.
func (t *Tracker) ReasonNotReady() string {
	r, err := t.Readiness()
	if err != nil {
		return err.Error()
	}
	return r.Reason()
}

// MarkApplied caches n as the last applied migration. Called by the
// initialization procedure after Migrate succeeds.
func (t *Tracker) MarkApplied(n int) error {
	return state.SetLastMigration(t.state, n)
}
