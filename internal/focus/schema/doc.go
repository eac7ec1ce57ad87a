// Package schema defines the focus session data model.
//
// # Overview
//
// Focus sessions are reconstructed from OS log text. The log source emits
// two kinds of records that matter here, and they are modelled as the
// [Event] union:
//
//   - [StartEvent]: a session began with a goal at a point in time
//   - [SummaryEvent]: the most recently started session ended after N minutes
//
// A [StartEvent] is parked as a [PendingSession] until a [SummaryEvent]
// arrives. The pair is then combined into a completed [Session], which is the
// only record ever written to the durable store.
//
// # Identity
//
// A session is identified by its (goal, start) pair. The store enforces that
// pair as a composite unique key, so re-inserting a session is a no-op.
//
//	pending := schema.PendingSession{Goal: "Writing", Start: t0}
//	session := pending.Complete(25)
//	// session.Goal == "Writing", session.Duration == 25, session.Start == t0
//
// # Timestamps
//
// Session start times are stored as epoch milliseconds. [Session.StartMillis]
// and [FromMillis] convert at the boundary; in memory everything is time.Time.
package schema
