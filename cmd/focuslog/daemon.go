package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/focuslog/focuslog/internal/config"
	"github.com/focuslog/focuslog/internal/focus/daemon"
	"github.com/focuslog/focuslog/internal/focus/feed"
	focussync "github.com/focuslog/focuslog/internal/focus/sync"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Sync in the background on an interval",
	Long: `Run a background sync immediately and then every daemon.interval until
interrupted. Only failed syncs are printed.

When a config file is in use, changes to daemon.interval are picked up
without a restart. With feed.port set, sync reports are also broadcast on
the live feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("interval") {
			a.cfg.Daemon.Interval, _ = cmd.Flags().GetDuration("interval")
		}

		reporters := focussync.MultiReporter{
			consoleReporter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()},
		}

		if a.cfg.Feed.Port > 0 {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			server := feed.NewServer(feed.Config{Port: a.cfg.Feed.Port, Sessions: store, Logger: a.logger})
			if err := server.Start(); err != nil {
				return err
			}
			defer server.Stop()
			reporters = append(reporters, server)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Live feed on ws://%s/ws\n", ui.RenderAccent("●"), server.Addr())
		}

		d, err := daemon.New(a.orchestrator(reporters), daemon.Config{
			Interval:   a.cfg.Daemon.Interval,
			RunOnStart: true,
			Logger:     a.logger,
		})
		if err != nil {
			return err
		}

		if path := viper.ConfigFileUsed(); path != "" && !cmd.Flags().Changed("interval") {
			watcher, err := daemon.NewConfigWatcher(path, 0, func() { reloadInterval(d, a) }, a.logger)
			if err != nil {
				a.logger.Warn("config reload disabled", "error", err)
			} else {
				go func() { _ = watcher.Run(ctx) }()
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Syncing every %s (Ctrl+C to stop)\n", ui.RenderAccent("↻"), a.cfg.Daemon.Interval)
		return d.Start(ctx)
	},
}

// reloadInterval re-reads the config file and applies a changed interval.
func reloadInterval(d *daemon.Daemon, a *app) {
	if err := viper.ReadInConfig(); err != nil {
		a.logger.Warn("failed to re-read config", "error", err)
		return
	}
	cfg, err := config.Load()
	if err != nil {
		a.logger.Warn("ignoring invalid config change", "error", err)
		return
	}
	if err := d.SetInterval(cfg.Daemon.Interval); err != nil {
		a.logger.Warn("failed to apply interval", "error", err)
	}
}

func init() {
	daemonCmd.Flags().Duration("interval", 0, "override daemon.interval")
	rootCmd.AddCommand(daemonCmd)
}
