// Package theme holds the shared terminal palette.
package theme

import "github.com/charmbracelet/lipgloss"

// Palette colours.
var (
	Gray700      = lipgloss.Color("#121214")
	Gray600      = lipgloss.Color("#202024")
	Gray500      = lipgloss.Color("#29292E")
	Gray300      = lipgloss.Color("#8D8D99")
	Gray100      = lipgloss.Color("#E1E1E6")
	Green300     = lipgloss.Color("#04D361")
	Green700     = lipgloss.Color("#00875F")
	Secondary700 = lipgloss.Color("#FBA94C")
	Danger       = lipgloss.Color("#F75A68")
)

// Common styles.
var (
	Header = lipgloss.NewStyle().Bold(true).Foreground(Gray100).Padding(0, 1)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Gray500).
		Padding(0, 1).
		MarginBottom(1)

	CardTitle  = lipgloss.NewStyle().Bold(true).Foreground(Gray300)
	CardBody   = lipgloss.NewStyle().Foreground(Gray100)
	CardFooter = lipgloss.NewStyle().Foreground(Gray300).Italic(true)

	Open   = lipgloss.NewStyle().Foreground(Secondary700).Bold(true)
	Closed = lipgloss.NewStyle().Foreground(Green300).Bold(true)

	Button = lipgloss.NewStyle().Foreground(Gray100).Background(Green700).Padding(0, 2)
	Help   = lipgloss.NewStyle().Foreground(Gray300)
	Error  = lipgloss.NewStyle().Foreground(Danger)
)
