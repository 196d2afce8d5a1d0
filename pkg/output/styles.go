package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Palette. The accent is the script-yellow used by the banner.
var (
	ColorAccent = lipgloss.Color("#f7c948")
	ColorWhite  = lipgloss.Color("#fafaf9")
	ColorMuted  = lipgloss.Color("#78716c")
	ColorGreen  = lipgloss.Color("#10b981") // ready, transpiled
	ColorRed    = lipgloss.Color("#f43f5e") // failures
	ColorGray   = lipgloss.Color("#a8a29e")
)

var (
	failureTitle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	stageLabel   = lipgloss.NewStyle().Foreground(ColorAccent)
	stackLine    = lipgloss.NewStyle().Foreground(ColorMuted).PaddingLeft(4)
)

func levelStyle(name string, color lipgloss.Color, bold bool) lipgloss.Style {
	return lipgloss.NewStyle().SetString(name).Foreground(color).Bold(bold)
}

// logStyles returns charmbracelet/log styles for TTY output.
func logStyles() *log.Styles {
	styles := log.DefaultStyles()

	styles.Levels[log.DebugLevel] = levelStyle("DEBUG", ColorMuted, false)
	styles.Levels[log.InfoLevel] = levelStyle("INFO", ColorAccent, true)
	styles.Levels[log.WarnLevel] = levelStyle("WARN", lipgloss.Color("#eab308"), true)
	styles.Levels[log.ErrorLevel] = levelStyle("ERROR", ColorRed, true)

	styles.Timestamp = lipgloss.NewStyle().Foreground(ColorMuted)
	styles.Key = lipgloss.NewStyle().Foreground(ColorAccent)
	styles.Value = lipgloss.NewStyle().Foreground(ColorGray)

	return styles
}
