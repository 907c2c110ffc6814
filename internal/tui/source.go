package tui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/bookkeeper/internal/presenter"
)

// Snapshot is everything the dashboard shows at one point in time.
type Snapshot struct {
	LoadedAt time.Time
	Overview *presenter.Overview
	Recent   []RecentExpense
}

// RecentExpense is one row of the recent expenses table.
type RecentExpense struct {
	Date     time.Time
	Category string
	Comment  string
	Amount   float64
	ID       int64
}

// Source produces dashboard snapshots.
type Source interface {
	Load(ctx context.Context, recent int) (Snapshot, error)
}

// SetSource reads snapshots from a presenter set.
type SetSource struct {
	set *presenter.Set
	now func() time.Time
}

// NewSetSource creates a source backed by set.
func NewSetSource(set *presenter.Set) *SetSource {
	return &SetSource{set: set, now: time.Now}
}

// Load reloads expenses from storage and builds a snapshot with at most
// recent expenses, newest first.
func (s *SetSource) Load(ctx context.Context, recent int) (Snapshot, error) {
	if err := s.set.Expenses.Reload(ctx); err != nil {
		return Snapshot{}, err
	}
	overview, err := s.set.Budget.Overview(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to compute budget overview: %w", err)
	}

	expenses := s.set.Expenses.Expenses()
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].WasteDate.After(expenses[j].WasteDate)
	})
	if recent >= 0 && len(expenses) > recent {
		expenses = expenses[:recent]
	}

	names := make(map[int64]string)
	rows := make([]RecentExpense, 0, len(expenses))
	for _, e := range expenses {
		name, ok := names[e.Category]
		if !ok {
			found, exists, err := s.set.Expenses.CategoryName(ctx, e.Category)
			if err != nil {
				return Snapshot{}, err
			}
			name = found
			if !exists {
				name = fmt.Sprintf("#%d", e.Category)
			}
			names[e.Category] = name
		}
		rows = append(rows, RecentExpense{
			ID:       e.ID,
			Date:     e.WasteDate,
			Category: name,
			Comment:  e.Comment,
			Amount:   e.Amount,
		})
	}

	return Snapshot{
		LoadedAt: s.now(),
		Overview: overview,
		Recent:   rows,
	}, nil
}
