// Package logsource queries the OS unified log for focus-session records and
// turns the returned text into typed events.
//
// The log query is an external command (macOS `log show` by default). Only
// its stdout is consumed; the extraction window is tracked through the
// cursor kept in the state store.
package logsource

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Errors returned by a Source.
var (
	ErrQueryFailed  = errors.New("log query failed")
	ErrQueryTimeout = errors.New("log query timed out")
)

// windowLayout is the timestamp format accepted by `log show --start/--end`.
const windowLayout = "2006-01-02 15:04:05"

// Source returns raw log text for the window [since, until].
type Source interface {
	Query(ctx context.Context, since, until time.Time) ([]byte, error)
}

// OSLog runs the OS log query command.
type OSLog struct {
	// Command is the executable to run (default "log").
	Command string

	// Subsystem and Category filter the records of the focus producer.
	Subsystem string
	Category  string

	// Timeout bounds a single query. Zero means no timeout beyond ctx.
	Timeout time.Duration
}

// Args returns the command arguments for a query over [since, until].
func (o *OSLog) Args(since, until time.Time) []string {
	predicate := fmt.Sprintf(`subsystem == "%s" AND category == "%s"`, o.Subsystem, o.Category)
	return []string{
		"show",
		"--style", "default",
		"--predicate", predicate,
		"--start", since.Local().Format(windowLayout),
		"--end", until.Local().Format(windowLayout),
	}
}

// Query runs the log command and returns its stdout.
func (o *OSLog) Query(ctx context.Context, since, until time.Time) ([]byte, error) {
	command := o.Command
	if command == "" {
		command = "log"
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, o.Args(since, until)...)
	cmd.WaitDelay = time.Second

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrQueryTimeout, o.Timeout, command)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %v (stderr: %s)", ErrQueryFailed, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return output, nil
}

// StaticSource serves fixed text, for tests and replaying saved logs.
type StaticSource struct {
	Text []byte
	Err  error

	// Calls and Untils record the window bounds of every query.
	Calls  []time.Time
	Untils []time.Time
}

// Query returns s.Text or s.Err.
func (s *StaticSource) Query(_ context.Context, since, until time.Time) ([]byte, error) {
	s.Calls = append(s.Calls, since)
	s.Untils = append(s.Untils, until)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Text, nil
}
