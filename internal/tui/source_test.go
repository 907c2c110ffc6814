package tui

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSet(t *testing.T) *presenter.Set {
	t.Helper()
	f, err := storage.NewFactory(nil, storage.FactoryOptions{Driver: storage.DriverMemory})
	require.NoError(t, err)
	set, err := presenter.Load(context.Background(), f)
	require.NoError(t, err)
	return set
}

func TestSetSource_Load(t *testing.T) {
	ctx := context.Background()
	set := newTestSet(t)

	food := &model.Category{Name: "Food"}
	require.NoError(t, set.Categories.Add(ctx, food))
	_, err := set.Budget.SetAmount(ctx, 30)
	require.NoError(t, err)

	now := time.Now()
	for i, amount := range []float64{5, 7, 11} {
		require.NoError(t, set.Expenses.Add(ctx, &model.Expense{
			Amount:    amount,
			Category:  food.ID,
			WasteDate: now.Add(-time.Duration(3-i) * time.Hour),
			Comment:   "meal",
		}))
	}
	// Booked on a category that no longer exists.
	_, err = set.ExpenseRepo.Add(ctx, &model.Expense{Amount: 2, Category: 99, WasteDate: now.Add(-time.Minute)})
	require.NoError(t, err)

	snapshot, err := NewSetSource(set).Load(ctx, 3)
	require.NoError(t, err)

	require.NotNil(t, snapshot.Overview)
	assert.InDelta(t, 30.0, snapshot.Overview.Budget.Amount, 0.0001)
	require.Len(t, snapshot.Overview.Periods, 3)
	assert.InDelta(t, 25.0, snapshot.Overview.Periods[0].Spent, 0.0001)

	require.Len(t, snapshot.Recent, 3)
	assert.Equal(t, "#99", snapshot.Recent[0].Category)
	assert.Equal(t, "Food", snapshot.Recent[1].Category)
	assert.InDelta(t, 11.0, snapshot.Recent[1].Amount, 0.0001)
	assert.InDelta(t, 7.0, snapshot.Recent[2].Amount, 0.0001)
	assert.False(t, snapshot.LoadedAt.IsZero())
}
