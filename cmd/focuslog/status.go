package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/focuslog/focuslog/internal/focus/pending"
	"github.com/focuslog/focuslog/internal/focus/state"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show store, cursor and pending session status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		now := time.Now()

		fmt.Fprintf(out, "\n%s\n", ui.HeaderStyle.Render("focuslog status"))
		fmt.Fprintf(out, "   Store: %s\n", a.cfg.Store.Path)
		fmt.Fprintf(out, "   State: %s\n", a.state.Path())

		if !a.tracker.IsReady() {
			fmt.Fprintf(out, "   Schema: %s %s\n", ui.RenderWarn("⚠"), a.tracker.ReasonNotReady())
		} else {
			fmt.Fprintf(out, "   Schema: %s ready\n", ui.RenderPass("✓"))
			if info, err := os.Stat(a.cfg.Store.Path); err == nil {
				fmt.Fprintf(out, "   Size: %.1f KB\n", float64(info.Size())/1024)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.CountSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   Sessions: %d\n", count)

			latest, err := store.LatestSession(cmd.Context())
			if err != nil {
				return err
			}
			if latest != nil {
				fmt.Fprintf(out, "   Latest: %s (%s, %s)\n", latest.Goal,
					ui.FormatMinutes(latest.Duration), ui.FormatAge(latest.Start, now))
			}
		}

		since, ok, err := state.NextSince(a.state)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "   Last sync: %s (%s)\n", since.Local().Format(time.DateTime), ui.FormatAge(since, now))
		} else {
			fmt.Fprintf(out, "   Last sync: %s\n", ui.RenderMuted("never"))
		}

		p, ok, err := a.pending.Peek()
		if errors.Is(err, pending.ErrCorrupt) {
			fmt.Fprintf(out, "   Pending: %s unreadable\n", ui.RenderWarn("⚠"))
		} else if err != nil {
			return err
		} else if ok {
			fmt.Fprintf(out, "   Pending: %s (started %s)\n", p.Goal, ui.FormatAge(p.Start, now))
		} else {
			fmt.Fprintf(out, "   Pending: %s\n", ui.RenderMuted("none"))
		}

		l := a.lock()
		held, err := l.TryLock()
		if err != nil {
			return err
		}
		if held {
			_ = l.Unlock()
			fmt.Fprintf(out, "   Sync: %s\n", ui.RenderMuted("idle"))
		} else {
			fmt.Fprintf(out, "   Sync: %s\n", ui.RenderAccent("in progress"))
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
