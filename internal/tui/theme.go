package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Every color fleetgen prints comes from here.
var (
	ColorAccent = lipgloss.Color("99")  // purple, headings
	ColorGreen  = lipgloss.Color("78")  // emitted, unchanged
	ColorYellow = lipgloss.Color("220") // warnings, modified
	ColorRed    = lipgloss.Color("203") // errors
	ColorCyan   = lipgloss.Color("81")  // paths, new files
	ColorGray   = lipgloss.Color("245") // secondary text
	ColorSubtle = lipgloss.Color("238") // borders
	ColorBright = lipgloss.Color("15")  // emphasis
)

// Icons. No emoji: they have variable width.
const (
	IconCheck  = "✓"
	IconCross  = "✗"
	IconWarn   = "▲"
	IconPlus   = "+"
	IconTilde  = "~"
	IconArrow  = "→"
	IconBullet = "•"
)

// Semantic styles. Command code uses these instead of raw colors.
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	HeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorCyan)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	SubtleStyle  = lipgloss.NewStyle().Foreground(ColorSubtle)
	DimStyle     = MutedStyle
	CodeStyle    = InfoStyle

	keyLabel = lipgloss.NewStyle().Foreground(ColorGray).Width(16)
)

// StatusIcon returns a colored ✓ or ✗.
func StatusIcon(ok bool) string {
	if ok {
		return SuccessStyle.Render(IconCheck)
	}
	return ErrorStyle.Render(IconCross)
}

// DiffBadge formats the drift state of one artifact.
func DiffBadge(state string) string {
	switch state {
	case "new":
		return InfoStyle.Render(IconPlus + " new")
	case "modified":
		return WarningStyle.Render(IconTilde + " modified")
	case "unchanged":
		return SuccessStyle.Render(IconCheck + " unchanged")
	default:
		return MutedStyle.Render(state)
	}
}

// KeyValue renders an aligned key-value line.
//
//	Example output: "  Namespace       oai-functions"
func KeyValue(key, value string) string {
	return fmt.Sprintf("  %s %s", keyLabel.Render(key), value)
}

// SectionHeader renders a bold section heading with a leading blank line.
func SectionHeader(title string) string {
	return "\n" + HeadingStyle.Render("  "+title)
}

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width <= 0 {
		width = 48
	}
	return SubtleStyle.Render(strings.Repeat("─", width))
}

// Indent prefixes every non-empty line with the given indent level (2 spaces each).
func Indent(s string, level int) string {
	pad := strings.Repeat("  ", level)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

// ValueOrMuted returns the value or a muted placeholder if empty.
func ValueOrMuted(v, placeholder string) string {
	if v == "" {
		return MutedStyle.Render(placeholder)
	}
	return v
}
