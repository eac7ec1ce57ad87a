package migrate

import (
	"errors"
	"strings"
	"testing"

	"github.com/focuslog/focuslog/internal/focus/db"
	"github.com/focuslog/focuslog/internal/focus/state"
)

func fixedLatest(n int) TrackerOption {
	return WithLatest(func() (int, error) { return n, nil })
}

func TestTracker_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		marker     string
		latest     int
		wantReady  bool
		wantReason string
	}{
		{name: "no marker", latest: 2, wantReason: "not been initialized"},
		{name: "behind", marker: "1", latest: 2, wantReason: "needs an update (migration 1 of 2"},
		{name: "equal", marker: "2", latest: 2, wantReady: true},
		{name: "ahead", marker: "3", latest: 2, wantReason: "newer focuslog"},
		{name: "garbage marker", marker: "x", latest: 2, wantReason: "not been initialized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewMemory()
			if tt.marker != "" {
				_ = store.Set(state.KeyLastMigration, tt.marker)
			}
			tr := NewTracker(store, fixedLatest(tt.latest))

			if got := tr.IsReady(); got != tt.wantReady {
				t.Fatalf("IsReady() = %v, want %v", got, tt.wantReady)
			}

			reason := tr.ReasonNotReady()
			if tt.wantReady {
				if reason != "" {
					t.Errorf("ReasonNotReady() = %q, want empty", reason)
				}
				if err := tr.Check(); err != nil {
					t.Errorf("Check() = %v, want nil", err)
				}
				return
			}
			if !strings.Contains(reason, tt.wantReason) {
				t.Errorf("ReasonNotReady() = %q, want substring %q", reason, tt.wantReason)
			}
			if err := tr.Check(); !errors.Is(err, ErrNotReady) {
				t.Errorf("Check() = %v, want ErrNotReady", err)
			}
		})
	}
}

func TestTracker_MarkApplied(t *testing.T) {
	store := state.NewMemory()
	tr := NewTracker(store)

	latest, err := db.LatestMigration()
	if err != nil {
		t.Fatalf("LatestMigration() failed: %v", err)
	}
	if tr.IsReady() {
		t.Fatal("IsReady() before MarkApplied")
	}
	if err := tr.MarkApplied(latest); err != nil {
		t.Fatalf("MarkApplied() failed: %v", err)
	}
	if !tr.IsReady() {
		t.Errorf("IsReady() after MarkApplied(%d) = false: %s", latest, tr.ReasonNotReady())
	}
}

func TestTracker_LatestError(t *testing.T) {
	boom := errors.New("boom")
	tr := NewTracker(state.NewMemory(), WithLatest(func() (int, error) { return 0, boom }))

	if tr.IsReady() {
		t.Fatal("IsReady() = true with failing migration listing")
	}
	if err := tr.Check(); !errors.Is(err, boom) || !errors.Is(err, ErrNotReady) {
		t.Errorf("Check() = %v, want both ErrNotReady and cause", err)
	}
}
