// Package ui holds terminal styling for focuslog output.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Colors used throughout the CLI.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#7BD88F"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFD866"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6188"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#78DCE8"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#727072"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	HeaderStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)

// RenderPass renders s in the success color.
func RenderPass(s string) string { return PassStyle.Render(s) }

// RenderWarn renders s in the warning color.
func RenderWarn(s string) string { return WarnStyle.Render(s) }

// RenderFail renders s in the failure color.
func RenderFail(s string) string { return FailStyle.Render(s) }

// RenderAccent renders s in the accent color.
func RenderAccent(s string) string { return AccentStyle.Render(s) }

// RenderMuted renders s dimmed.
func RenderMuted(s string) string { return MutedStyle.Render(s) }

// Setup disables colors when out is not a terminal or NO_COLOR is set.
func Setup(out io.Writer) {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(out) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
