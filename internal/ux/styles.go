// Package ux renders pstate output for humans: styled status lines for
// --raw mode and markdown for docs. Machine output (JSON) lives in
// output.go.
package ux

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	ColorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorHead = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMute)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHead)
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconNext = "→"
)

// color is decided once per process; tests flip it with SetColor.
var color = detectColor()

func detectColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SetColor forces styling on or off and returns the previous setting.
func SetColor(on bool) bool {
	prev := color
	color = on
	return prev
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(s lipgloss.Style, text string) string {
	if !color {
		return text
	}
	return s.Render(text)
}

func Pass(s string) string   { return render(passStyle, s) }
func Warn(s string) string   { return render(warnStyle, s) }
func Fail(s string) string   { return render(failStyle, s) }
func Muted(s string) string  { return render(mutedStyle, s) }
func Header(s string) string { return render(headerStyle, s) }
func Bold(s string) string   { return render(boldStyle, s) }

// Status renders a PASS/WARN/FAIL word with its icon and colour.
func Status(status string) string {
	switch status {
	case "PASS":
		return Pass(IconPass + " PASS")
	case "WARN":
		return Warn(IconWarn + " WARN")
	default:
		return Fail(IconFail + " " + status)
	}
}
