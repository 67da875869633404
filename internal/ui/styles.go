package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	accentStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	passStyle   lipgloss.Style
	warnStyle   lipgloss.Style
	failStyle   lipgloss.Style
	titleStyle  lipgloss.Style
)

func init() {
	ApplyTheme(DefaultTheme())
}

// ApplyTheme rebuilds the package styles from a palette. Call it once at
// startup, before rendering.
func ApplyTheme(t Theme) {
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted))
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Pass))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warn))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Fail))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)).Bold(true)
}

// UsePlainColors disables color output entirely, for --plain and for
// piped output.
func UsePlainColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// RenderAccent renders s in the accent color.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted renders s dimmed.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderPass renders s as a success marker.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders s as a warning marker.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders s as a failure marker.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderTitle renders s as a bold section title.
func RenderTitle(s string) string { return titleStyle.Render(s) }
