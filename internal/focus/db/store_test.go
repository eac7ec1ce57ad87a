package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/focuslog/focuslog/internal/focus/schema"
)

// testDBPath returns a temporary path for test databases
func testDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.db")
}

// openMigrated opens a store and applies all packaged migrations.
func openMigrated(t *testing.T) *DB {
	t.Helper()

	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 7, hour, min, 0, 0, time.UTC)
}

func TestOpen_Success(t *testing.T) {
	path := testDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "focuslog.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()
}

func TestClose_Idempotent(t *testing.T) {
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestInsertSession_Insert(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	s := &schema.Session{Goal: "Writing", Duration: 25, Start: at(9, 0)}
	inserted, err := db.InsertSession(ctx, s)
	if err != nil {
		t.Fatalf("InsertSession() failed: %v", err)
	}
	if !inserted {
		t.Fatal("InsertSession() reported not inserted for a new session")
	}
	if s.ID == 0 {
		t.Error("InsertSession() did not assign an ID")
	}

	count, err := db.CountSessions(ctx)
	if err != nil {
		t.Fatalf("CountSessions() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountSessions() = %d, want 1", count)
	}
}

func TestInsertSession_DuplicateIsNoop(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	first := &schema.Session{Goal: "Writing", Duration: 25, Start: at(9, 0)}
	if _, err := db.InsertSession(ctx, first); err != nil {
		t.Fatalf("InsertSession() failed: %v", err)
	}

	// Same (goal, start) with a different duration: still a duplicate.
	again := &schema.Session{Goal: "Writing", Duration: 40, Start: at(9, 0)}
	inserted, err := db.InsertSession(ctx, again)
	if err != nil {
		t.Fatalf("duplicate InsertSession() returned error: %v", err)
	}
	if inserted {
		t.Error("duplicate InsertSession() reported inserted")
	}

	sessions, err := db.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(ListSessions()) = %d, want 1", len(sessions))
	}
	if sessions[0].Duration != 25 {
		t.Errorf("stored duration = %d, want original 25", sessions[0].Duration)
	}
}

func TestInsertSession_SameGoalDifferentStart(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	for _, start := range []time.Time{at(9, 0), at(10, 0)} {
		inserted, err := db.InsertSession(ctx, &schema.Session{Goal: "Writing", Duration: 25, Start: start})
		if err != nil || !inserted {
			t.Fatalf("InsertSession() = (%v, %v)", inserted, err)
		}
	}
	if count, _ := db.CountSessions(ctx); count != 2 {
		t.Errorf("CountSessions() = %d, want 2", count)
	}
}

func TestInsertSession_ConcurrentDuplicates(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertedCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := db.InsertSession(ctx, &schema.Session{Goal: "Writing", Duration: 25, Start: at(9, 0)})
			if err != nil {
				t.Errorf("InsertSession() failed: %v", err)
				return
			}
			if inserted {
				mu.Lock()
				insertedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if insertedCount != 1 {
		t.Errorf("inserted %d times, want exactly 1", insertedCount)
	}
	if count, _ := db.CountSessions(ctx); count != 1 {
		t.Errorf("CountSessions() = %d, want 1", count)
	}
}

func TestInsertSession_Invalid(t *testing.T) {
	db := openMigrated(t)

	_, err := db.InsertSession(context.Background(), &schema.Session{Goal: "", Start: at(9, 0)})
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("InsertSession() error = %v, want ErrInvalidSession", err)
	}
}

func TestInsertSession_SchemaMismatch(t *testing.T) {
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	// No migrations applied: the sessions table does not exist.
	_, err = db.InsertSession(context.Background(), &schema.Session{Goal: "Writing", Duration: 1, Start: at(9, 0)})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("InsertSession() error = %v, want ErrSchemaMismatch", err)
	}
}

func TestInsertSession_ClosedStoreUnavailable(t *testing.T) {
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	raw := db.RawDB()
	_ = raw.Close()

	_, err = db.InsertSession(context.Background(), &schema.Session{Goal: "Writing", Duration: 1, Start: at(9, 0)})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("InsertSession() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestSessionsBetween_InclusiveAndOrdered(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	// Insert out of order.
	for _, s := range []*schema.Session{
		{Goal: "C", Duration: 10, Start: at(11, 0)},
		{Goal: "A", Duration: 10, Start: at(9, 0)},
		{Goal: "out", Duration: 10, Start: at(12, 0)},
		{Goal: "B", Duration: 10, Start: at(10, 0)},
		{Goal: "early", Duration: 10, Start: at(8, 59)},
	} {
		if _, err := db.InsertSession(ctx, s); err != nil {
			t.Fatalf("InsertSession() failed: %v", err)
		}
	}

	got, err := db.SessionsBetween(ctx, at(9, 0), at(11, 0))
	if err != nil {
		t.Fatalf("SessionsBetween() failed: %v", err)
	}

	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("SessionsBetween() returned %d sessions, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Goal != want[i] {
			t.Errorf("session %d goal = %q, want %q", i, s.Goal, want[i])
		}
	}
	if !got[0].Start.Equal(at(9, 0)) {
		t.Errorf("start = %v, want %v", got[0].Start, at(9, 0))
	}
}

func TestSessionsBetween_Empty(t *testing.T) {
	db := openMigrated(t)

	got, err := db.SessionsBetween(context.Background(), at(0, 0), at(23, 59))
	if err != nil {
		t.Fatalf("SessionsBetween() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("SessionsBetween() = %v, want empty", got)
	}
}

func TestLatestSession(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	latest, err := db.LatestSession(ctx)
	if err != nil {
		t.Fatalf("LatestSession() failed: %v", err)
	}
	if latest != nil {
		t.Fatalf("LatestSession() on empty store = %+v, want nil", latest)
	}

	_, _ = db.InsertSession(ctx, &schema.Session{Goal: "old", Duration: 5, Start: at(8, 0)})
	_, _ = db.InsertSession(ctx, &schema.Session{Goal: "new", Duration: 5, Start: at(9, 0)})

	latest, err = db.LatestSession(ctx)
	if err != nil {
		t.Fatalf("LatestSession() failed: %v", err)
	}
	if latest == nil || latest.Goal != "new" {
		t.Errorf("LatestSession() = %+v, want goal new", latest)
	}
}

func TestStartPrecisionIsMillis(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 7, 9, 0, 0, 123_456_789, time.UTC)
	if _, err := db.InsertSession(ctx, &schema.Session{Goal: "Writing", Duration: 1, Start: start}); err != nil {
		t.Fatalf("InsertSession() failed: %v", err)
	}

	// Sub-millisecond differences collapse onto the same key.
	inserted, err := db.InsertSession(ctx, &schema.Session{Goal: "Writing", Duration: 1, Start: start.Add(400 * time.Microsecond)})
	if err != nil {
		t.Fatalf("InsertSession() failed: %v", err)
	}
	if inserted {
		t.Error("sub-millisecond variant was inserted as a new session")
	}

	latest, _ := db.LatestSession(ctx)
	if latest.Start.UnixMilli() != start.UnixMilli() {
		t.Errorf("stored start = %d, want %d", latest.Start.UnixMilli(), start.UnixMilli())
	}
}
