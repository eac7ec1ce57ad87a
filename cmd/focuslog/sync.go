package main

import (
	focussync "github.com/focuslog/focuslog/internal/focus/sync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Sync focus sessions from the OS log",
	Long: `Read the OS log since the last sync and store every completed focus
session.

Only one sync runs at a time per store; a sync that finds another one in
progress exits without doing anything. With --background the command is
silent unless the sync fails, for use from schedulers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		trigger := focussync.TriggerInteractive
		if background, _ := cmd.Flags().GetBool("background"); background {
			trigger = focussync.TriggerBackground
		}

		reporter := consoleReporter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
		_, err = a.orchestrator(reporter).Run(cmd.Context(), trigger)
		return err
	},
}

func init() {
	syncCmd.Flags().Bool("background", false, "report only failures")
	rootCmd.AddCommand(syncCmd)
}
