package schema

import (
	"fmt"
	"time"
)

// EventKind identifies the concrete type behind an Event.
type EventKind string

const (
	// KindStart marks a StartEvent.
	KindStart EventKind = "start"
	// KindSummary marks a SummaryEvent.
	KindSummary EventKind = "summary"
)

// Event is one record extracted from the log source. Events are transient:
// they are folded into the pending slot or the session store and never
// persisted as-is. The union is closed; only StartEvent and SummaryEvent
// implement it.
type Event interface {
	Kind() EventKind
	String() string
	isEvent()
}

// StartEvent reports that a focus session began.
type StartEvent struct {
	Goal  string
	Start time.Time
}

// Kind implements Event.
func (StartEvent) Kind() EventKind { return KindStart }

func (e StartEvent) String() string {
	return fmt.Sprintf("start(%q at %s)", e.Goal, e.Start.Format(time.RFC3339))
}

func (StartEvent) isEvent() {}

// SummaryEvent reports the duration of the most recently started session.
type SummaryEvent struct {
	// Duration in whole minutes. Unparseable durations are reported as 0.
	Duration int
}

// Kind implements Event.
func (SummaryEvent) Kind() EventKind { return KindSummary }

func (e SummaryEvent) String() string {
	return fmt.Sprintf("summary(%d min)", e.Duration)
}

func (SummaryEvent) isEvent() {}
