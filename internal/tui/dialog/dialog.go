// Package dialog renders blocking alert boxes on top of a screen.
package dialog

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Additional-Code/repairdesk/internal/tui/theme"
)

// Alert is a titled message the user must dismiss.
type Alert struct {
	Title   string
	Message string
}

var box = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(theme.Secondary700).
	Padding(1, 2).
	Width(48)

// Render draws the alert with its dismiss hint.
func (a Alert) Render() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(a.Title))
	b.WriteString("\n\n")
	b.WriteString(a.Message)
	b.WriteString("\n\n")
	b.WriteString(theme.Help.Render("enter: OK"))
	return box.Render(b.String())
}
