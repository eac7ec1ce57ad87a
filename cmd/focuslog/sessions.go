package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/focuslog/focuslog/internal/ui"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	GroupID: "data",
	Short:   "List stored focus sessions",
	Long: `List sessions whose start lies between --from and --to (inclusive).

Both bounds accept RFC 3339 timestamps, plain dates (2024-03-07) or
natural language such as "yesterday", "last monday" or "3 days ago".
The default range is the last 7 days.`,
	Example: `  focuslog sessions
  focuslog sessions --from "last monday"
  focuslog sessions --from 2024-03-01 --to 2024-03-31 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		now := time.Now()
		fromFlag, _ := cmd.Flags().GetString("from")
		toFlag, _ := cmd.Flags().GetString("to")
		asJSON, _ := cmd.Flags().GetBool("json")

		to := now
		if toFlag != "" {
			if to, err = parseTimeFlag(toFlag, now); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
		}
		from := to.AddDate(0, 0, -7)
		if fromFlag != "" {
			if from, err = parseTimeFlag(fromFlag, now); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
		}
		if from.After(to) {
			return fmt.Errorf("--from (%s) is after --to (%s)", from.Format(time.DateTime), to.Format(time.DateTime))
		}

		store, err := a.openReadyStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.SessionsBetween(cmd.Context(), from, to)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sessions)
		}

		if len(sessions) == 0 {
			fmt.Fprintf(out, "No sessions between %s and %s\n",
				from.Local().Format(time.DateTime), to.Local().Format(time.DateTime))
			return nil
		}
		fmt.Fprintln(out, ui.SessionsTable(sessions))
		return nil
	},
}

// naturalDates parses relative expressions like "yesterday" or "2 days ago".
var naturalDates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseTimeFlag accepts RFC 3339, a plain date, or natural language relative
// to now.
func parseTimeFlag(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateTime, value, now.Location()); err == nil {
		return t, nil
	}

	r, err := naturalDates.Parse(value, now)
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("cannot understand %q", value)
	}
	return r.Time, nil
}

func init() {
	sessionsCmd.Flags().String("from", "", "start of the range")
	sessionsCmd.Flags().String("to", "", "end of the range (default now)")
	sessionsCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(sessionsCmd)
}
