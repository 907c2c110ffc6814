// Package tui implements the interactive budget dashboard.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/bookkeeper/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Model holds the dashboard state.
type Model struct {
	ctx       context.Context
	source    Source
	lastError error
	theme     themes.Theme
	snapshot  Snapshot
	help      help.Model
	keymap    KeyMap
	recent    table.Model
	config    Config
	width     int
	height    int
	loading   bool
	loaded    bool
	quitting  bool
}

// New creates a dashboard reading from source.
func New(ctx context.Context, source Source, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := Model{
		ctx:     ctx,
		source:  source,
		config:  cfg,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		width:   cfg.Width,
		height:  cfg.Height,
		loading: true,
	}
	m.recent = m.newRecentTable()
	m.handleResize()
	return m
}

// Init starts the first load and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit), key.Matches(msg, m.keymap.ForceQuit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Refresh):
			// One load at a time; presenters are not safe for concurrent reloads.
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.load()
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case snapshotLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.loaded = true
		m.snapshot = msg.snapshot
		m.recent.SetRows(recentRows(msg.snapshot.Recent))
		return m, nil

	case tickMsg:
		if m.loading {
			return m, m.tick()
		}
		m.loading = true
		return m, tea.Batch(m.load(), m.tick())
	}

	var cmd tea.Cmd
	m.recent, cmd = m.recent.Update(msg)
	return m, cmd
}

// Snapshot returns the data currently shown.
func (m Model) Snapshot() Snapshot {
	return m.snapshot
}

// Err returns the error of the last failed load.
func (m Model) Err() error {
	return m.lastError
}

func (m Model) load() tea.Cmd {
	ctx, source, limit := m.ctx, m.source, m.config.RecentLimit
	return func() tea.Msg {
		if source == nil {
			return snapshotLoadedMsg{err: fmt.Errorf("no data source configured")}
		}
		snapshot, err := source.Load(ctx, limit)
		return snapshotLoadedMsg{snapshot: snapshot, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	if m.config.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.config.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) newRecentTable() table.Model {
	styles := table.DefaultStyles()
	styles.Header = m.theme.TableHeader
	styles.Selected = m.theme.TableSelected

	return table.New(
		table.WithColumns(recentColumns(m.width)),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
}

func (m *Model) handleResize() {
	m.recent.SetColumns(recentColumns(m.width))
	m.recent.SetWidth(m.width)
	// Title, period box, help line and spacing.
	height := m.height - 14
	if height < 3 {
		height = 3
	}
	m.recent.SetHeight(height)
	m.help.Width = m.width
}

func recentColumns(width int) []table.Column {
	comment := width - 12 - 20 - 10 - 8
	if comment < 10 {
		comment = 10
	}
	return []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Category", Width: 20},
		{Title: "Amount", Width: 10},
		{Title: "Comment", Width: comment},
	}
}

func recentRows(expenses []RecentExpense) []table.Row {
	rows := make([]table.Row, len(expenses))
	for i, e := range expenses {
		rows[i] = table.Row{
			e.Date.Local().Format("2006-01-02"),
			e.Category,
			fmt.Sprintf("%.2f", e.Amount),
			e.Comment,
		}
	}
	return rows
}
