// Package themes holds the color schemes of the budget dashboard.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Faint         lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
	Box           lipgloss.Style
	ProgressFull  lipgloss.Style
	ProgressEmpty lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#7c3aed"),
	Success: lipgloss.Color("#10b981"),
	Warning: lipgloss.Color("#f59e0b"),
	Error:   lipgloss.Color("#ef4444"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Faint: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),

	TableHeader: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#a78bfa")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		BorderBottom(true),
	TableSelected: lipgloss.NewStyle().
		Background(lipgloss.Color("#7c3aed")).
		Foreground(lipgloss.Color("#fafafa")),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),

	ProgressFull: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7c3aed")),
	ProgressEmpty: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#404040")),
}

// Plain renders without colors or borders, for dumb terminals and tests.
var Plain = Theme{
	Title:         lipgloss.NewStyle().MarginBottom(1),
	Subtitle:      lipgloss.NewStyle(),
	Normal:        lipgloss.NewStyle(),
	Bold:          lipgloss.NewStyle(),
	Faint:         lipgloss.NewStyle(),
	StatusSuccess: lipgloss.NewStyle(),
	StatusWarning: lipgloss.NewStyle(),
	StatusError:   lipgloss.NewStyle(),
	TableHeader:   lipgloss.NewStyle(),
	TableSelected: lipgloss.NewStyle(),
	Box:           lipgloss.NewStyle(),
	ProgressFull:  lipgloss.NewStyle(),
	ProgressEmpty: lipgloss.NewStyle(),
}

// Usage picks the status style for spending that used ratio of its limit.
func (t Theme) Usage(ratio float64) lipgloss.Style {
	switch {
	case ratio > 1:
		return t.StatusError
	case ratio >= 0.8:
		return t.StatusWarning
	default:
		return t.StatusSuccess
	}
}
