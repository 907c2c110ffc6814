package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/Veraticus/bookkeeper/internal/testutil/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	tests := []struct {
		name       string
		opts       TestDBOptions
		wantDriver string
		wantCats   int
		wantStore  bool
	}{
		{
			name:       "empty sqlite",
			wantDriver: storage.DriverSQLite,
			wantStore:  true,
		},
		{
			name: "memory driver with fixture",
			opts: TestDBOptions{
				UseMemoryDriver: true,
				Configure: func(b categories.Builder) categories.Builder {
					return b.WithFixture(categories.FixtureHousehold)
				},
			},
			wantDriver: storage.DriverMemory,
			wantCats:   7,
		},
		{
			name: "sqlite with basic tree",
			opts: TestDBOptions{
				Configure: func(b categories.Builder) categories.Builder {
					return b.WithBasicCategories()
				},
			},
			wantDriver: storage.DriverSQLite,
			wantCats:   5,
			wantStore:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := SetupTestDB(t, tt.opts)
			assert.Equal(t, tt.wantDriver, db.Factory.Driver())
			assert.Equal(t, tt.wantStore, db.Store != nil)
			assert.Len(t, db.Set.Categories.Categories(), tt.wantCats)
			assert.Len(t, db.Categories, tt.wantCats)
		})
	}
}

func TestSetupTestDB_Budget(t *testing.T) {
	db := SetupTestDB(t, TestDBOptions{Budget: 12.5})

	budget, err := db.Set.Budget.Budget(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 12.5, budget.Amount, 0.0001)
}

func TestTestDB_AddExpense(t *testing.T) {
	db := SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithBasicCategories()
	})
	when := time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC)

	e := db.AddExpense(9.99, categories.CategoryGroceries, when, "milk")
	assert.Positive(t, e.ID)
	assert.Equal(t, db.MustCategoryID(categories.CategoryGroceries), e.Category)

	stored, ok := db.Set.Expenses.Get(e.ID)
	require.True(t, ok)
	assert.True(t, when.Equal(stored.WasteDate))
	assert.Equal(t, "milk", stored.Comment)
}
