package presenter

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newExpensePresenter(t *testing.T) (*ExpensePresenter, *CategoryPresenter) {
	t.Helper()
	ctx := context.Background()

	categories := newCategoryRepo(t)
	expenses, err := storage.NewMemoryRepository[model.Expense](model.ExpenseDescriptor)
	require.NoError(t, err)

	cp, err := NewCategoryPresenter(ctx, categories)
	require.NoError(t, err)
	ep, err := NewExpensePresenter(ctx, expenses, categories)
	require.NoError(t, err)
	ep.now = func() time.Time { return fixedNow }
	return ep, cp
}

func addExpense(t *testing.T, p *ExpensePresenter, amount float64, category int64, ago time.Duration) int64 {
	t.Helper()
	e := &model.Expense{
		Amount:    amount,
		Category:  category,
		WasteDate: fixedNow.Add(-ago),
		Comment:   "test",
	}
	require.NoError(t, p.Add(context.Background(), e))
	return e.ID
}

func TestExpensePresenter_AddDefaultsDates(t *testing.T) {
	p, cp := newExpensePresenter(t)
	food := addCategory(t, cp, "Food", nil)

	e := &model.Expense{Amount: 12.5, Category: food, Comment: "lunch"}
	require.NoError(t, p.Add(context.Background(), e))

	assert.Equal(t, int64(1), e.ID)
	assert.True(t, e.WasteDate.Equal(fixedNow))
	assert.True(t, e.AddedDate.Equal(fixedNow))

	got, ok := p.Get(e.ID)
	require.True(t, ok)
	assert.Equal(t, "lunch", got.Comment)
	assert.InDelta(t, 12.5, got.Amount, 0.0001)
}

func TestExpensePresenter_AddKeepsExplicitDates(t *testing.T) {
	p, _ := newExpensePresenter(t)

	waste := fixedNow.Add(-72 * time.Hour)
	e := &model.Expense{Amount: 3, Category: 1, WasteDate: waste}
	require.NoError(t, p.Add(context.Background(), e))

	assert.True(t, e.WasteDate.Equal(waste))
	assert.True(t, e.AddedDate.Equal(fixedNow))
}

func TestExpensePresenter_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	p, _ := newExpensePresenter(t)

	id := addExpense(t, p, 10, 1, time.Hour)

	updated, ok := p.Get(id)
	require.True(t, ok)
	updated.Amount = 15
	updated.Comment = "corrected"
	require.NoError(t, p.Update(ctx, &updated))

	got, ok := p.Get(id)
	require.True(t, ok)
	assert.InDelta(t, 15.0, got.Amount, 0.0001)
	assert.Equal(t, "corrected", got.Comment)

	require.NoError(t, p.Delete(ctx, id))
	_, ok = p.Get(id)
	assert.False(t, ok)
	assert.Empty(t, p.Expenses())

	err := p.Delete(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)

	err = p.Update(ctx, &model.Expense{ID: 99, Amount: 1})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestExpensePresenter_ByCategoryAndName(t *testing.T) {
	ctx := context.Background()
	p, cp := newExpensePresenter(t)

	food := addCategory(t, cp, "Food", nil)
	coffee := addCategory(t, cp, "Coffee", &food)

	addExpense(t, p, 4.5, coffee, time.Hour)
	addExpense(t, p, 20, food, 2*time.Hour)
	addExpense(t, p, 3.2, coffee, 3*time.Hour)

	found, err := p.ByCategory(ctx, coffee)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.InDelta(t, 4.5, found[0].Amount, 0.0001)
	assert.InDelta(t, 3.2, found[1].Amount, 0.0001)

	name, ok, err := p.CategoryName(ctx, coffee)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Coffee", name)

	_, ok, err = p.CategoryName(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpensePresenter_SpentBetween(t *testing.T) {
	p, _ := newExpensePresenter(t)

	addExpense(t, p, 10.10, 1, time.Hour)
	addExpense(t, p, 20.20, 1, 3*Day)
	addExpense(t, p, 5, 1, 10*Day)
	addExpense(t, p, 100, 1, 40*Day)

	tests := []struct {
		start   time.Time
		end     time.Time
		wantErr error
		name    string
		want    float64
	}{
		{
			name:  "last day",
			start: fixedNow,
			end:   fixedNow.Add(-Day),
			want:  10.10,
		},
		{
			name:  "last week",
			start: fixedNow,
			end:   fixedNow.Add(-Week),
			want:  30.30,
		},
		{
			name:  "last month",
			start: fixedNow,
			end:   fixedNow.Add(-Month),
			want:  35.30,
		},
		{
			name:  "bounds are exclusive",
			start: fixedNow.Add(-time.Hour),
			end:   fixedNow.Add(-3 * Day),
			want:  0,
		},
		{
			name:  "empty window",
			start: fixedNow.Add(-20 * Day),
			end:   fixedNow.Add(-30 * Day),
			want:  0,
		},
		{
			name:    "reversed period",
			start:   fixedNow.Add(-Day),
			end:     fixedNow,
			wantErr: common.ErrInvalidPeriod,
		},
		{
			name:    "zero length period",
			start:   fixedNow,
			end:     fixedNow,
			wantErr: common.ErrInvalidPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.SpentBetween(tt.start, tt.end)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.000001)
		})
	}
}

func TestExpensePresenter_SpentBetweenSumsExactly(t *testing.T) {
	p, _ := newExpensePresenter(t)
	for i := 0; i < 10; i++ {
		addExpense(t, p, 0.1, 1, time.Duration(i+1)*time.Minute)
	}

	got, err := p.SpentBetween(fixedNow, fixedNow.Add(-Day))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestExpensePresenter_Reload(t *testing.T) {
	ctx := context.Background()
	p, cp := newExpensePresenter(t)
	food := addCategory(t, cp, "Food", nil)
	addExpense(t, p, 5, food, time.Hour)

	// A write that bypasses the presenter.
	_, err := p.repo.Add(ctx, &model.Expense{Amount: 7, Category: food, WasteDate: fixedNow.Add(-2 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, p.Expenses(), 1)

	require.NoError(t, p.Reload(ctx))
	assert.Len(t, p.Expenses(), 2)

	spent, err := p.SpentBetween(fixedNow, fixedNow.Add(-Day))
	require.NoError(t, err)
	assert.InDelta(t, 12.0, spent, 0.0001)
}
