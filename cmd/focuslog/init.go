package main

import (
	"fmt"

	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "sync",
	Short:   "Create or update the session store",
	Long: `Create the session store if needed and apply any pending schema
migrations, then record the applied migration so syncs can run.

Run this once after installing and again after upgrading focuslog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		l := a.lock()
		if err := l.Acquire(); err != nil {
			return err
		}
		defer l.Unlock()

		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.tracker.MarkApplied(n); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s Session store ready (migration %d)\n", ui.RenderPass("✓"), n)
		fmt.Fprintf(out, "   Store: %s\n", store.Path())
		fmt.Fprintf(out, "   State: %s\n", a.state.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
