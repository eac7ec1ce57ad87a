package schema

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxGoalLength bounds the goal text accepted into the store, in characters.
const MaxGoalLength = 500

func validateGoal(goal string) error {
	if goal == "" {
		return fmt.Errorf("goal is required")
	}
	if n := utf8.RuneCountInString(goal); n > MaxGoalLength {
		return fmt.Errorf("goal must be %d characters or less (got %d)", MaxGoalLength, n)
	}
	return nil
}

// PendingSession is a session that has started but whose duration is not
// yet known. At most one exists at a time.
type PendingSession struct {
	Goal  string    `json:"goal"`
	Start time.Time `json:"start"`
}

// Validate checks that the pending session can later be completed.
func (p *PendingSession) Validate() error {
	if err := validateGoal(p.Goal); err != nil {
		return err
	}
	if p.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	return nil
}

// Complete combines the pending goal/start with a duration into a Session.
// The returned Session has no ID until it is stored.
func (p *PendingSession) Complete(duration int) *Session {
	return &Session{
		Goal:     p.Goal,
		Duration: duration,
		Start:    p.Start,
	}
}

// Encode serializes the pending session for a key-value slot.
func (p *PendingSession) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal pending session: %w", err)
	}
	return string(data), nil
}

// DecodePendingSession parses a value previously produced by Encode.
func DecodePendingSession(raw string) (*PendingSession, error) {
	var p PendingSession
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to parse pending session: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pending session: %w", err)
	}
	return &p, nil
}

// Session is one completed focus interval. (Goal, Start) is unique in the store.
type Session struct {
	// ID is assigned by the store; zero before insertion.
	ID int64 `json:"id,omitempty"`

	Goal string `json:"goal"`

	// Duration in whole minutes.
	Duration int `json:"duration"`

	// Start is persisted with millisecond precision.
	Start time.Time `json:"start"`
}

// Validate checks if the Session has valid field values.
func (s *Session) Validate() error {
	if err := validateGoal(s.Goal); err != nil {
		return err
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration must not be negative (got %d)", s.Duration)
	}
	if s.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	return nil
}

// StartMillis returns the start timestamp as epoch milliseconds.
func (s *Session) StartMillis() int64 {
	return s.Start.UnixMilli()
}

// End returns the time the session finished.
func (s *Session) End() time.Time {
	return s.Start.Add(time.Duration(s.Duration) * time.Minute)
}

// Key returns the (goal, start) identity as a single string, useful for
// deduplicating in memory.
func (s *Session) Key() string {
	return fmt.Sprintf("%s@%d", s.Goal, s.StartMillis())
}

// FromMillis converts stored epoch milliseconds back into local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
