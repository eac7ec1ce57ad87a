// Package pending implements the single-slot cache that holds the most
// recently started, not yet summarized focus session.
package pending

import (
	"errors"
	"fmt"

	"github.com/focuslog/focuslog/internal/focus/schema"
	"github.com/focuslog/focuslog/internal/focus/state"
	"github.com/focuslog/focuslog/internal/logging"
)

// ErrCorrupt is returned by Peek when the slot holds an undecodable value.
var ErrCorrupt = errors.New("pending session slot is unreadable")

// WarnFunc receives user-visible warnings, such as a discarded corrupt slot.
type WarnFunc func(msg string)

// Cache stores zero or one PendingSession in a named state slot.
// Set overwrites whatever is in the slot: a second start before a summary
// silently replaces the first.
type Cache struct {
	store  state.Store
	key    string
	logger *logging.Logger
	warn   WarnFunc
}

// Option configures a Cache.
type Option func(*Cache)

// WithKey overrides the slot name (default state.KeyPendingSession).
func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Cache) { c.logger = logging.OrNop(l).WithComponent("pending") }
}

// WithWarn sets the user-visible warning sink.
func WithWarn(fn WarnFunc) Option {
	return func(c *Cache) { c.warn = fn }
}

// New returns a Cache over store.
func New(store state.Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		key:    state.KeyPendingSession,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the pending session, or (nil, false) when the slot is empty.
//
// A value that cannot be decoded is treated as absent: it is deleted and a
// warning is raised, but no error reaches the caller. Only a failure of the
// underlying store is returned as an error.
func (c *Cache) Get() (*schema.PendingSession, bool, error) {
	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read pending session: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	p, err := schema.DecodePendingSession(raw)
	if err != nil {
		c.logger.Warn("discarding corrupt pending session", "error", err)
		if c.warn != nil {
			c.warn("Discarded unreadable pending focus session")
		}
		if derr := c.store.Delete(c.key); derr != nil {
			c.logger.Warn("failed to delete corrupt pending session", "error", derr)
		}
		return nil, false, nil
	}
	return p, true, nil
}

// Peek reads the slot like Get but never modifies it, so it is safe to call
// without holding the sync lock. An undecodable value yields an error
// wrapping ErrCorrupt.
func (c *Cache) Peek() (*schema.PendingSession, bool, error) {
	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read pending session: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	p, err := schema.DecodePendingSession(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return p, true, nil
}

// Set stores p in the slot, replacing any previous pending session.
func (c *Cache) Set(p *schema.PendingSession) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid pending session: %w", err)
	}
	raw, err := p.Encode()
	if err != nil {
		return err
	}
	if err := c.store.Set(c.key, raw); err != nil {
		return fmt.Errorf("failed to write pending session: %w", err)
	}
	c.logger.Debug("pending session set", "goal", p.Goal, "start", p.Start)
	return nil
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (c *Cache) Clear() error {
	if err := c.store.Delete(c.key); err != nil {
		return fmt.Errorf("failed to clear pending session: %w", err)
	}
	return nil
}
