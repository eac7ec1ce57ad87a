package migrate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/focuslog/focuslog/internal/focus/schema"
)

// SessionLister reads every stored session.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]*schema.Session, error)
}

// SessionInserter stores a session idempotently.
type SessionInserter interface {
	InsertSession(ctx context.Context, s *schema.Session) (bool, error)
}

// Record is the JSONL line format for one session.
type Record struct {
	Goal     string    `json:"goal"`
	Duration int       `json:"duration"`
	Start    time.Time `json:"start"`
}

// ImportResult contains statistics about an import.
type ImportResult struct {
	Inserted   int
	Duplicates int
	Invalid    int
	Errors     []string
}

// ExportJSONL writes all sessions to w, one JSON object per line, ordered
// by start. It returns the number of sessions written.
func ExportJSONL(ctx context.Context, src SessionLister, w io.Writer) (int, error) {
	sessions, err := src.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	enc := json.NewEncoder(w)
	for i, s := range sessions {
		rec := Record{Goal: s.Goal, Duration: s.Duration, Start: s.Start.UTC()}
		if err := enc.Encode(rec); err != nil {
			return i, fmt.Errorf("failed to write session %d: %w", i+1, err)
		}
	}
	return len(sessions), nil
}

// ImportJSONL reads sessions from r and inserts them through dst.
//
// Lines that do not parse or fail validation are counted as invalid and
// skipped; existing (goal, start) pairs are counted as duplicates. Only a
// store failure aborts the import.
func ImportJSONL(ctx context.Context, dst SessionInserter, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			result.Invalid++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid JSON: %v", lineNum, err))
			continue
		}

		s := &schema.Session{Goal: rec.Goal, Duration: rec.Duration, Start: rec.Start}
		if err := s.Validate(); err != nil {
			result.Invalid++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}

		inserted, err := dst.InsertSession(ctx, s)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read JSONL: %w", err)
	}

	return result, nil
}
