// Package sync runs one synchronization of focus sessions from the OS log
// into the session store.
//
// Overview
//
// A run is a short fixed sequence:
//
//	Readiness gate ── not ready ──> report not_ready (no lock, no store)
//	     │
//	Advisory lock ── busy ──> report already_running
//	     │
//	Extractor (window since last run)
//	     │
//	Fold: StartEvent   → pending.Set
//	      SummaryEvent → pending.Get → store.InsertSession → pending.Clear
//	     │
//	Release lock, report
//
// Runs are started by two triggers: interactive (the sync command) and
// background (the daemon). The trigger only changes how the Result is
// surfaced; the fold is the same.
//
// Error Handling
//
// Expected conditions are not errors: a duplicate session is counted, a busy
// lock ends the run with StatusAlreadyRunning, and a summary without a pending
// session is logged and skipped. Log query failures and store failures end
// the run with StatusFailed; the extraction cursor is rewound so the next run
// re-reads the same window, which the idempotent insert makes safe.
//
// Usage
//
//	orch := sync.New(sync.Config{
//	    Readiness: tracker,
//	    Lock:      lock.New(storePath),
//	    Open:      openStore,
//	    Extractor: extractor,
//	    Pending:   pending.New(stateStore),
//	})
//	result, err := orch.Run(ctx, sync.TriggerInteractive)
package sync
