package tui

import "github.com/charmbracelet/lipgloss"

var (
	navy  = lipgloss.Color("#101F38")
	lime  = lipgloss.Color("#8BC34A")
	muted = lipgloss.Color("#6B7280")
	red   = lipgloss.Color("#E53935")
)

// Styles holds the lipgloss styles used by the terminal widget.
type Styles struct {
	Title     lipgloss.Style
	Variant   lipgloss.Style
	Selected  lipgloss.Style
	Hint      lipgloss.Style
	Error     lipgloss.Style
	Heading   lipgloss.Style
	Card      lipgloss.Style
	CardTitle lipgloss.Style
	CardMeta  lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lime),
		Variant:  lipgloss.NewStyle().Foreground(muted).PaddingRight(1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lime).PaddingRight(1),
		Hint:     lipgloss.NewStyle().Foreground(muted).Italic(true),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(red),
		Heading:  lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(navy).
			Padding(0, 1),
		CardTitle: lipgloss.NewStyle().Bold(true),
		CardMeta:  lipgloss.NewStyle().Foreground(muted),
	}
}

// PlainStyles renders without colour or borders; used for piped output.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{
		Title: s, Variant: s.PaddingRight(1), Selected: s.PaddingRight(1), Hint: s,
		Error: s, Heading: s.MarginTop(1), Card: s, CardTitle: s, CardMeta: s,
	}
}
