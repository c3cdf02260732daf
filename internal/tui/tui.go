package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders a styled table with headers and rows using lipgloss/table.
// Rows listed in footer are rendered bold after a separator.
func Table(headers []string, rows [][]string, footer ...[]string) string {
	if len(rows) == 0 {
		return DimStyle.Render("  (no data)")
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	footerStyle := cellStyle.Bold(true)

	all := append(append([][]string{}, rows...), footer...)
	t := table.New().
		Headers(headers...).
		Rows(all...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= len(rows):
				return footerStyle
			default:
				return cellStyle
			}
		})

	return t.Render()
}

// Confirm prompts for y/n confirmation on stdin. Returns true if confirmed.
func Confirm(prompt string) (bool, error) {
	return confirm(os.Stdin, os.Stderr, prompt)
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// IsInteractive returns true if stdin is a terminal (not piped).
func IsInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
