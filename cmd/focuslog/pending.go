package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/focuslog/focuslog/internal/focus/pending"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:     "pending",
	GroupID: "data",
	Short:   "Inspect the started-but-unsummarized session",
}

var pendingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the pending session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		p, ok, err := a.pending.Peek()
		if errors.Is(err, pending.ErrCorrupt) {
			fmt.Fprintf(out, "%s Pending session is unreadable; the next sync will discard it\n", ui.RenderWarn("⚠"))
			return nil
		}
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "No pending session")
			return nil
		}
		fmt.Fprintf(out, "%s %s\n", ui.RenderAccent("●"), p.Goal)
		fmt.Fprintf(out, "   Started: %s (%s)\n", p.Start.Local().Format(time.DateTime), ui.FormatAge(p.Start, time.Now()))
		return nil
	},
}

var pendingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the pending session",
	Long: `Discard the pending session. Its summary, if it arrives later, will be
skipped as unmatched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, ok, err := a.pending.Peek()
		if errors.Is(err, pending.ErrCorrupt) {
			p, ok, err = nil, true, nil
		}
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending session")
			return nil
		}
		label := "unreadable pending session"
		if p != nil {
			label = fmt.Sprintf("pending session %q", p.Goal)
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			if !ui.IsTerminal(os.Stdin) {
				return errors.New("refusing to clear without --yes when not running in a terminal")
			}
			confirmed := false
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Discard %s?", label)).
				Affirmative("Discard").
				Negative("Keep").
				Value(&confirmed).
				Run()
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Kept pending session")
				return nil
			}
		}

		// The prompt runs unlocked; re-read under the lock so a sync that
		// ran meanwhile is not undone.
		l := a.lock()
		if err := l.Acquire(); err != nil {
			return err
		}
		defer l.Unlock()

		current, ok, err := a.pending.Peek()
		if err != nil && !errors.Is(err, pending.ErrCorrupt) {
			return err
		}
		if p != nil && (!ok || current.Goal != p.Goal || !current.Start.Equal(p.Start)) {
			return errors.New("the pending session changed while confirming; run the command again")
		}

		if err := a.pending.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Discarded %s\n", ui.RenderPass("✓"), label)
		return nil
	},
}

func init() {
	pendingClearCmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	pendingCmd.AddCommand(pendingShowCmd)
	pendingCmd.AddCommand(pendingClearCmd)
	rootCmd.AddCommand(pendingCmd)
}
