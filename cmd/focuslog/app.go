package main

import (
	"context"
	"fmt"
	"io"

	"github.com/focuslog/focuslog/internal/config"
	"github.com/focuslog/focuslog/internal/focus/db"
	"github.com/focuslog/focuslog/internal/focus/lock"
	"github.com/focuslog/focuslog/internal/focus/logsource"
	"github.com/focuslog/focuslog/internal/focus/migrate"
	"github.com/focuslog/focuslog/internal/focus/pending"
	"github.com/focuslog/focuslog/internal/focus/state"
	focussync "github.com/focuslog/focuslog/internal/focus/sync"
	"github.com/focuslog/focuslog/internal/logging"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	state   *state.FileStore
	tracker *migrate.Tracker
	pending *pending.Cache

	errOut io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, err
	}

	errOut := cmd.ErrOrStderr()
	st := state.NewFileStore(cfg.State.Path, state.WithLogger(logger))

	return &app{
		cfg:     cfg,
		logger:  logger,
		state:   st,
		tracker: migrate.NewTracker(st),
		pending: pending.New(st,
			pending.WithLogger(logger),
			pending.WithWarn(func(msg string) {
				fmt.Fprintf(errOut, "%s %s\n", ui.RenderWarn("⚠"), msg)
			}),
		),
		errOut: errOut,
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Close()
}

// openStore opens the session store without checking readiness.
func (a *app) openStore() (*db.DB, error) {
	return db.Open(a.cfg.Store.Path, db.WithLogger(a.logger))
}

// openReadyStore opens the store after the readiness gate.
func (a *app) openReadyStore() (*db.DB, error) {
	if err := a.tracker.Check(); err != nil {
		return nil, err
	}
	return a.openStore()
}

func (a *app) lock() *lock.Lock {
	return lock.New(a.cfg.Store.Path)
}

func (a *app) extractor() *logsource.Extractor {
	source := &logsource.OSLog{
		Command:   a.cfg.LogSource.Command,
		Subsystem: a.cfg.LogSource.Subsystem,
		Category:  a.cfg.LogSource.Category,
		Timeout:   a.cfg.LogSource.Timeout,
	}
	return logsource.NewExtractor(source, a.state,
		logsource.WithInitialLookback(a.cfg.LogSource.InitialLookback),
		logsource.WithLogger(a.logger),
	)
}

func (a *app) orchestrator(reporter focussync.Reporter) *focussync.Orchestrator {
	return focussync.New(focussync.Config{
		Readiness: a.tracker,
		Lock:      a.lock(),
		Open: func(ctx context.Context) (focussync.Store, error) {
			store, err := a.openStore()
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		Extractor:   a.extractor(),
		Pending:     a.pending,
		Reporter:    reporter,
		Logger:      a.logger,
		AutoMigrate: a.cfg.Sync.AutoMigrate,
	})
}

// consoleReporter prints results the way their trigger asks for.
type consoleReporter struct {
	out    io.Writer
	errOut io.Writer
}

func (c consoleReporter) Report(_ context.Context, r *focussync.Result) {
	if !r.Surface() {
		return
	}
	switch r.Status {
	case focussync.StatusCompleted:
		fmt.Fprintf(c.out, "%s %s\n", ui.RenderPass("✓"), r.Summary())
		if r.Migrated > 0 {
			fmt.Fprintf(c.out, "   Migrated store to version %d\n", r.Migrated)
		}
	case focussync.StatusAlreadyRunning:
		fmt.Fprintf(c.out, "%s %s\n", ui.RenderAccent("…"), r.Summary())
	case focussync.StatusNotReady:
		fmt.Fprintf(c.errOut, "%s %s\n", ui.RenderWarn("⚠"), r.Summary())
	default:
		fmt.Fprintf(c.errOut, "%s %s\n", ui.RenderFail("✗"), r.Summary())
	}
}
