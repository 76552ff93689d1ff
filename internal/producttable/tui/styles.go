package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent      = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#8BC34A"}
	colorMuted       = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	colorDestructive = lipgloss.Color("#e53935")
	colorSuccess     = lipgloss.Color("#8BC34A")
)

type styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	FieldErr  lipgloss.Style
	Header    lipgloss.Style
	Row       lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	StatusErr lipgloss.Style
	StatusOK  lipgloss.Style
	Dialog    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Label:     lipgloss.NewStyle().Width(7),
		FieldErr:  lipgloss.NewStyle().Foreground(colorDestructive),
		Header:    lipgloss.NewStyle().Bold(true),
		Row:       lipgloss.NewStyle(),
		Selected:  lipgloss.NewStyle().Reverse(true),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		StatusErr: lipgloss.NewStyle().Foreground(colorDestructive),
		StatusOK:  lipgloss.NewStyle().Foreground(colorSuccess),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
	}
}
