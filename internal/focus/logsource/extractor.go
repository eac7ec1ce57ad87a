package logsource

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/focuslog/focuslog/internal/focus/schema"
	"github.com/focuslog/focuslog/internal/focus/state"
	"github.com/focuslog/focuslog/internal/logging"
)

// DefaultInitialLookback is the window used when no cursor exists yet.
const DefaultInitialLookback = 24 * time.Hour

// Batch is the result of one extraction.
type Batch struct {
	// Since and Until bound the queried window [Since, Until).
	Since time.Time
	Until time.Time

	// Events are in log order.
	Events []schema.Event

	prev    time.Time
	hasPrev bool
}

// Extractor reads the window since the last extraction from a Source.
type Extractor struct {
	source   Source
	state    state.Store
	lookback time.Duration
	now      func() time.Time
	logger   *logging.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithInitialLookback sets how far back the first extraction reaches.
func WithInitialLookback(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.lookback = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the extractor logger.
func WithLogger(l *logging.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an Extractor querying source and keeping its cursor
// in store.
func NewExtractor(source Source, store state.Store, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		source:   source,
		state:    store,
		lookback: DefaultInitialLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger).WithComponent("extractor")
	return e
}

// Extract queries the window [cursor, now) and parses it into events.
//
// The cursor is advanced to now before the query runs. If the query or the
// parse fails, the previous cursor is put back and the error is returned.
func (e *Extractor) Extract(ctx context.Context) (*Batch, error) {
	prev, hasPrev, err := state.NextSince(e.state)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction cursor: %w", err)
	}

	until := e.now()
	since := prev
	if !hasPrev {
		since = until.Add(-e.lookback)
	}

	batch := &Batch{Since: since, Until: until, prev: prev, hasPrev: hasPrev}

	if err := state.SetNextSince(e.state, until); err != nil {
		return nil, err
	}

	output, err := e.source.Query(ctx, since, until)
	if err != nil {
		e.restore(batch)
		return nil, fmt.Errorf("failed to query log since %s: %w", since.Format(time.RFC3339), err)
	}

	events, err := ParseEvents(bytes.NewReader(output))
	if err != nil {
		e.restore(batch)
		return nil, err
	}
	batch.Events = events

	e.logger.Debug("extracted events",
		"since", since,
		"until", until,
		"bytes", len(output),
		"events", len(events),
	)

	return batch, nil
}

// Rewind puts back the cursor that was in place before b was extracted, so
// the next extraction re-reads the same window.
func (e *Extractor) Rewind(b *Batch) error {
	if b == nil {
		return nil
	}
	if !b.hasPrev {
		return e.state.Delete(state.KeyNextSince)
	}
	return state.SetNextSince(e.state, b.prev)
}

func (e *Extractor) restore(b *Batch) {
	if err := e.Rewind(b); err != nil {
		e.logger.Error("failed to restore extraction cursor", "error", err)
	}
}
