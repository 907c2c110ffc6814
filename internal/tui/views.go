package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.theme.Title.Render("Budget")}

	switch {
	case m.lastError != nil:
		sections = append(sections, m.theme.StatusError.Render("Error: "+m.lastError.Error()))
	case !m.loaded:
		sections = append(sections, m.theme.Faint.Render("Loading..."))
	}

	if m.loaded && m.snapshot.Overview != nil {
		sections = append(sections,
			m.renderPeriods(m.snapshot.Overview),
			"",
			m.theme.Bold.Render("Recent expenses"),
			m.recent.View(),
		)
	}

	sections = append(sections, m.renderStatus(), m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderPeriods(overview *presenter.Overview) string {
	lines := []string{
		m.theme.Subtitle.Render(fmt.Sprintf("Daily budget %.2f", overview.Budget.Amount)),
	}
	for _, p := range overview.Periods {
		ratio := usage(p)
		status := "left"
		if p.Over() {
			status = "over"
		}
		remaining := p.Remaining()
		if remaining < 0 {
			remaining = -remaining
		}

		lines = append(lines, fmt.Sprintf("%-6s %s %9.2f / %-9.2f %s",
			p.Name,
			m.renderBar(ratio),
			p.Spent,
			p.Limit,
			m.theme.Usage(ratio).Render(fmt.Sprintf("%.2f %s", remaining, status)),
		))
	}
	return m.theme.Box.Render(strings.Join(lines, "\n"))
}

func (m Model) renderBar(ratio float64) string {
	filled := int(ratio * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" +
		m.theme.ProgressFull.Render(strings.Repeat("█", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("░", barWidth-filled)) +
		"]"
}

func (m Model) renderStatus() string {
	if m.loading && m.loaded {
		return m.theme.Faint.Render("Refreshing...")
	}
	if m.snapshot.LoadedAt.IsZero() {
		return ""
	}
	return m.theme.Faint.Render("Updated " + m.snapshot.LoadedAt.Local().Format("15:04:05"))
}

// usage is the share of the limit already spent. A zero limit counts as
// fully used once anything is spent.
func usage(p presenter.Period) float64 {
	if p.Limit <= 0 {
		if p.Spent > 0 {
			return 2
		}
		return 0
	}
	return p.Spent / p.Limit
}
