package logsource

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/focuslog/focuslog/internal/focus/schema"
)

// Line markers emitted by the focus producer.
const (
	markerStart    = "Start focus session"
	markerGoal     = "Goal: "
	markerSummary  = "Focus session activity summary"
	markerDuration = "Duration"
)

// timestampLayouts are tried in order against the first two fields of a
// start line.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000000-0700",
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
}

// ParseEvents scans log text line by line and returns the focus events in
// the order they appear.
//
// A start line opens a start context that the next goal line completes. A
// summary line enters summary mode; the next duration line yields a summary
// event and leaves it. Everything else is ignored. Malformed lines never
// abort the scan: an unreadable duration becomes 0 and a start without a
// goal line produces nothing.
func ParseEvents(r io.Reader) ([]schema.Event, error) {
	var events []schema.Event

	var (
		startAt   time.Time
		haveStart bool
		inSummary bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.Contains(line, markerStart):
			ts, ok := parseTimestamp(line)
			if !ok {
				haveStart = false
				continue
			}
			startAt = ts
			haveStart = true

		case haveStart && strings.Contains(line, markerGoal):
			goal := strings.TrimSpace(line[strings.Index(line, markerGoal)+len(markerGoal):])
			events = append(events, schema.StartEvent{Goal: goal, Start: startAt})
			haveStart = false

		case strings.Contains(line, markerSummary):
			inSummary = true

		case inSummary && strings.Contains(line, markerDuration):
			rest := line[strings.Index(line, markerDuration)+len(markerDuration):]
			events = append(events, schema.SummaryEvent{Duration: parseLeadingInt(rest)})
			inSummary = false
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log output: %w", err)
	}

	return events, nil
}

// parseTimestamp reads the date and time from the first two fields of line.
func parseTimestamp(line string) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return time.Time{}, false
	}
	value := fields[0] + " " + fields[1]
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseLeadingInt returns the first run of digits in s, or 0.
func parseLeadingInt(s string) int {
	s = strings.TrimLeftFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end >= 0 {
		s = s[:end]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
