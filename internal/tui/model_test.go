package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/Veraticus/bookkeeper/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	err       error
	snapshot  Snapshot
	calls     int
	lastLimit int
}

func (s *stubSource) Load(_ context.Context, recent int) (Snapshot, error) {
	s.calls++
	s.lastLimit = recent
	return s.snapshot, s.err
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		LoadedAt: time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC),
		Overview: &presenter.Overview{
			Budget: model.Budget{ID: 1, Amount: 20},
			Periods: []presenter.Period{
				{Name: "Day", Spent: 25, Limit: 20},
				{Name: "Week", Spent: 60, Limit: 140},
				{Name: "Month", Spent: 60, Limit: 600},
			},
		},
		Recent: []RecentExpense{
			{ID: 2, Date: time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC), Category: "Coffee", Comment: "flat white", Amount: 4.5},
			{ID: 1, Date: time.Date(2024, time.June, 14, 9, 0, 0, 0, time.UTC), Category: "Food", Comment: "groceries", Amount: 55.5},
		},
	}
}

func newTestModel(source Source) Model {
	return New(context.Background(), source,
		WithTheme(themes.Plain),
		WithSize(100, 30),
		WithRefreshInterval(0),
		WithRecentLimit(5))
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func TestModel_LoadsSnapshot(t *testing.T) {
	source := &stubSource{snapshot: sampleSnapshot()}
	m := newTestModel(source)

	assert.Contains(t, m.View(), "Loading...")

	cmd := m.load()
	require.NotNil(t, cmd)
	msg := cmd()
	m, _ = update(t, m, msg)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 5, source.lastLimit)
	require.NoError(t, m.Err())

	view := m.View()
	for _, want := range []string{
		"Daily budget 20.00",
		"Day", "5.00 over",
		"Week", "80.00 left",
		"Month", "540.00 left",
		"Recent expenses",
		"Coffee", "flat white", "4.50",
		"Food", "groceries", "55.50",
	} {
		assert.Contains(t, view, want)
	}
	assert.NotContains(t, view, "Loading...")
}

func TestModel_LoadError(t *testing.T) {
	source := &stubSource{err: errors.New("database is locked")}
	m := newTestModel(source)

	m, _ = update(t, m, m.load()())

	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "Error: database is locked")

	// A later successful load clears the error.
	source.err = nil
	source.snapshot = sampleSnapshot()
	m, _ = update(t, m, m.load()())
	require.NoError(t, m.Err())
	assert.NotContains(t, m.View(), "Error:")
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		check func(t *testing.T, m Model, cmd tea.Cmd)
		name  string
		key   tea.KeyMsg
	}{
		{
			name: "q quits",
			key:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}},
			check: func(t *testing.T, m Model, cmd tea.Cmd) {
				t.Helper()
				require.NotNil(t, cmd)
				assert.IsType(t, tea.QuitMsg{}, cmd())
				assert.Empty(t, m.View())
			},
		},
		{
			name: "ctrl+c quits",
			key:  tea.KeyMsg{Type: tea.KeyCtrlC},
			check: func(t *testing.T, _ Model, cmd tea.Cmd) {
				t.Helper()
				require.NotNil(t, cmd)
				assert.IsType(t, tea.QuitMsg{}, cmd())
			},
		},
		{
			name: "r reloads",
			key:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}},
			check: func(t *testing.T, m Model, cmd tea.Cmd) {
				t.Helper()
				require.NotNil(t, cmd)
				assert.True(t, m.loading)
				assert.IsType(t, snapshotLoadedMsg{}, cmd())
			},
		},
		{
			name: "? toggles full help",
			key:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}},
			check: func(t *testing.T, m Model, cmd tea.Cmd) {
				t.Helper()
				assert.Nil(t, cmd)
				assert.True(t, m.help.ShowAll)
				assert.Contains(t, m.View(), "force quit")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(&stubSource{snapshot: sampleSnapshot()})
			m, _ = update(t, m, m.load()())
			m, cmd := update(t, m, tt.key)
			tt.check(t, m, cmd)
		})
	}
}

func TestModel_TickReloads(t *testing.T) {
	source := &stubSource{snapshot: sampleSnapshot()}
	m := New(context.Background(), source, WithTheme(themes.Plain), WithRefreshInterval(time.Hour))
	m, _ = update(t, m, m.load()())
	require.False(t, m.loading)

	m, cmd := update(t, m, tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	// A tick during a load only schedules the next tick.
	_, cmd = update(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestModel_RefreshDuringLoad(t *testing.T) {
	source := &stubSource{snapshot: sampleSnapshot()}
	m := newTestModel(source)
	require.True(t, m.loading, "the first load starts with Init")

	// The initial load is still running.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Nil(t, cmd)

	m, _ = update(t, m, m.load()())
	require.False(t, m.loading)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	_, second := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, second, "a refresh while reloading starts no second load")

	cmd()
	assert.Equal(t, 2, source.calls)
}

func TestModel_NoRefreshWithoutInterval(t *testing.T) {
	m := newTestModel(&stubSource{})
	assert.Nil(t, m.tick())
}

func TestModel_Resize(t *testing.T) {
	m := newTestModel(&stubSource{snapshot: sampleSnapshot()})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 15})

	assert.Equal(t, 60, m.width)
	assert.Equal(t, 15, m.height)
	assert.Equal(t, 3, m.recent.Height())
	assert.Equal(t, 10, m.recent.Columns()[3].Width)
}

func TestModel_NilSource(t *testing.T) {
	m := newTestModel(nil)
	m, _ = update(t, m, m.load()())
	require.Error(t, m.Err())
}

func TestUsage(t *testing.T) {
	assert.InDelta(t, 0.5, usage(presenter.Period{Spent: 5, Limit: 10}), 0.0001)
	assert.InDelta(t, 0.0, usage(presenter.Period{Spent: 0, Limit: 0}), 0.0001)
	assert.Greater(t, usage(presenter.Period{Spent: 1, Limit: 0}), 1.0)
}
