package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/focuslog/focuslog/internal/focus/migrate"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "data",
	Short:   "Export sessions as JSONL",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.openReadyStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var w io.Writer = cmd.OutOrStdout()
		output, _ := cmd.Flags().GetString("output")
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		n, err := migrate.ExportJSONL(cmd.Context(), store, w)
		if err != nil {
			return err
		}
		if output != "" && output != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d sessions to %s\n", ui.RenderPass("✓"), n, output)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file|->",
	GroupID: "data",
	Short:   "Import sessions from JSONL",
	Long: `Insert sessions from a JSONL export. Sessions already in the store
(same goal and start) are skipped, so importing the same file twice is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		if err := a.tracker.Check(); err != nil {
			return err
		}
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

		result, err := migrate.ImportJSONL(cmd.Context(), store, r)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s Imported %d sessions (%d already stored, %d invalid)\n",
			ui.RenderPass("✓"), result.Inserted, result.Duplicates, result.Invalid)
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "%s Skipped lines:\n   %s\n", ui.RenderWarn("⚠"), strings.Join(result.Errors, "\n   "))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
