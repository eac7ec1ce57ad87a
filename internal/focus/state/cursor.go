package state

import (
	"fmt"
	"strconv"
	"time"
)

// NextSince returns the stored lower bound of the next extraction window.
// A missing or unparseable value reports ok=false.
func NextSince(s Store) (since time.Time, ok bool, err error) {
	raw, ok, err := s.Get(KeyNextSince)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, perr := time.Parse(time.RFC3339Nano, raw)
	if perr != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// SetNextSince records the lower bound of the next extraction window.
func SetNextSince(s Store, since time.Time) error {
	if err := s.Set(KeyNextSince, since.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record extraction cursor: %w", err)
	}
	return nil
}

// LastMigration returns the cached last-applied migration number.
// A missing or unparseable value reports ok=false.
func LastMigration(s Store) (n int, ok bool, err error) {
	raw, ok, err := s.Get(KeyLastMigration)
	if err != nil || !ok {
		return 0, false, err
	}
	n, perr := strconv.Atoi(raw)
	if perr != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetLastMigration caches the last-applied migration number.
func SetLastMigration(s Store, n int) error {
	if err := s.Set(KeyLastMigration, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("failed to record migration marker: %w", err)
	}
	return nil
}
