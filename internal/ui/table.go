package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/focuslog/focuslog/internal/focus/schema"
)

// FormatMinutes renders a duration in minutes as "1h 05m" or "25m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// SessionsTable renders sessions as a bordered table with a total row.
func SessionsTable(sessions []*schema.Session) string {
	rows := make([][]string, 0, len(sessions))
	total := 0
	for _, s := range sessions {
		total += s.Duration
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.Start.Local().Format("2006-01-02 15:04"),
			FormatMinutes(s.Duration),
			s.Goal,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers("ID", "START", "DURATION", "GOAL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Inherit(HeaderStyle)
			}
			return style
		})

	return t.Render() + "\n" + MutedStyle.Render(fmt.Sprintf("%d sessions, %s total", len(sessions), FormatMinutes(total)))
}

// FormatAge renders how long ago t was, coarsely.
func FormatAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
