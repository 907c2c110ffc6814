// Package testutil sets up databases and presenters for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/Veraticus/bookkeeper/internal/testutil/categories"
)

// TestDB is a database with presenters and the categories seeded into it.
type TestDB struct {
	Store      *storage.Store
	Factory    *storage.Factory
	Set        *presenter.Set
	t          *testing.T
	Categories categories.CategoryMap
}

// TestDBOptions configures SetupTestDB.
type TestDBOptions struct {
	Configure func(categories.Builder) categories.Builder
	// Path of the SQLite file; empty uses an in-memory database.
	Path   string
	Budget float64
	// UseMemoryDriver skips SQLite and uses in-process repositories.
	UseMemoryDriver bool
}

// SetupTestDB creates a database, loads the presenters and seeds it. The
// store is closed when the test ends.
func SetupTestDB(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()
	ctx := context.Background()

	var store *storage.Store
	factoryOpts := storage.FactoryOptions{Driver: storage.DriverSQLite}
	if opts.UseMemoryDriver {
		factoryOpts.Driver = storage.DriverMemory
	} else {
		path := opts.Path
		if path == "" {
			path = storage.MemoryPath
		}
		var err error
		store, err = storage.NewStore(path)
		if err != nil {
			t.Fatalf("failed to create test database: %v", err)
		}
		t.Cleanup(func() {
			if err := store.Close(); err != nil {
				t.Logf("failed to close test database: %v", err)
			}
		})
	}

	factory, err := storage.NewFactory(store, factoryOpts)
	if err != nil {
		t.Fatalf("failed to create repository factory: %v", err)
	}
	set, err := presenter.Load(ctx, factory)
	if err != nil {
		t.Fatalf("failed to load presenters: %v", err)
	}

	builder := categories.NewBuilder(t)
	if opts.Configure != nil {
		builder = opts.Configure(builder)
	}
	cats, err := builder.Build(ctx, set.Categories)
	if err != nil {
		t.Fatalf("failed to build categories: %v", err)
	}

	if opts.Budget > 0 {
		if _, err := set.Budget.SetAmount(ctx, opts.Budget); err != nil {
			t.Fatalf("failed to set budget: %v", err)
		}
	}

	return &TestDB{
		Store:      store,
		Factory:    factory,
		Set:        set,
		Categories: cats,
		t:          t,
	}
}

// SetupTestDBWithBuilder creates an in-memory SQLite database seeded by
// the configured category builder.
func SetupTestDBWithBuilder(t *testing.T, configure func(categories.Builder) categories.Builder) *TestDB {
	t.Helper()
	return SetupTestDB(t, TestDBOptions{Configure: configure})
}

// MustCategoryID returns the id of a seeded category or fails the test.
func (db *TestDB) MustCategoryID(name categories.CategoryName) int64 {
	db.t.Helper()
	return db.Categories.MustID(db.t, name)
}

// AddExpense books an expense on a seeded category.
func (db *TestDB) AddExpense(amount float64, category categories.CategoryName, when time.Time, comment string) model.Expense {
	db.t.Helper()
	e := &model.Expense{
		Amount:    amount,
		Category:  db.MustCategoryID(category),
		WasteDate: when,
		Comment:   comment,
	}
	if err := db.Set.Expenses.Add(context.Background(), e); err != nil {
		db.t.Fatalf("failed to add expense: %v", err)
	}
	return *e
}
