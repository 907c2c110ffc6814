// Package categories seeds category trees for tests through a fluent
// builder.
//
// Example usage:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
//		return b.WithBasicCategories().WithChild(categories.CategoryFood, "Snacks")
//	})
package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/presenter"
)

// Builder provides a fluent interface for constructing test category trees.
type Builder interface {
	// WithCategory adds a root category.
	WithCategory(name CategoryName) Builder

	// WithChild adds a category below parent. The parent must be added first.
	WithChild(parent, name CategoryName) Builder

	// WithBasicCategories adds the small tree most tests need.
	WithBasicCategories() Builder

	// WithFixture adds every category of a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build stores the categories through the presenter, parents first.
	Build(ctx context.Context, categories *presenter.CategoryPresenter) (CategoryMap, error)
}

// CategoryName represents a strongly-typed category name.
type CategoryName string

// String returns the string representation of the category name.
func (c CategoryName) String() string {
	return string(c)
}

// Common category names used across tests.
const (
	CategoryFood           CategoryName = "Food"
	CategoryGroceries      CategoryName = "Groceries"
	CategoryDining         CategoryName = "Dining"
	CategoryCoffee         CategoryName = "Coffee"
	CategoryTransportation CategoryName = "Transportation"
	CategoryFuel           CategoryName = "Fuel"
	CategoryHousing        CategoryName = "Housing"
	CategoryUtilities      CategoryName = "Utilities"
	CategoryEntertainment  CategoryName = "Entertainment"
)

// Entry is one category of a tree; an empty Parent makes it a root.
type Entry struct {
	Name   CategoryName
	Parent CategoryName
}

// CategoryMap provides lookup of created categories by name.
type CategoryMap map[CategoryName]model.Category

// Get returns the category for the given name and whether it was found.
func (m CategoryMap) Get(name CategoryName) (model.Category, bool) {
	cat, ok := m[name]
	return cat, ok
}

// MustGet returns the category for the given name or fails the test.
func (m CategoryMap) MustGet(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat, ok := m.Get(name)
	if !ok {
		t.Fatalf("category %q not found in test data", name)
	}
	return cat
}

// MustID returns the id of the named category or fails the test.
func (m CategoryMap) MustID(t *testing.T, name CategoryName) int64 {
	t.Helper()
	return m.MustGet(t, name).ID
}

type categoryBuilder struct {
	t       *testing.T
	seen    map[CategoryName]struct{}
	entries []Entry
}

// NewBuilder creates a new category builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &categoryBuilder{
		t:    t,
		seen: make(map[CategoryName]struct{}),
	}
}

func (b *categoryBuilder) add(e Entry) Builder {
	if _, dup := b.seen[e.Name]; dup {
		return b
	}
	b.seen[e.Name] = struct{}{}
	b.entries = append(b.entries, e)
	return b
}

func (b *categoryBuilder) WithCategory(name CategoryName) Builder {
	return b.add(Entry{Name: name})
}

func (b *categoryBuilder) WithChild(parent, name CategoryName) Builder {
	return b.add(Entry{Name: name, Parent: parent})
}

func (b *categoryBuilder) WithBasicCategories() Builder {
	return b.WithFixture(FixtureBasic)
}

func (b *categoryBuilder) WithFixture(fixture Fixture) Builder {
	for _, e := range fixture.Entries() {
		b.add(e)
	}
	return b
}

func (b *categoryBuilder) Build(ctx context.Context, categories *presenter.CategoryPresenter) (CategoryMap, error) {
	b.t.Helper()

	created := make(CategoryMap, len(b.entries))
	for _, e := range b.entries {
		cat := &model.Category{Name: e.Name.String()}
		if e.Parent != "" {
			parent, ok := created[e.Parent]
			if !ok {
				return nil, fmt.Errorf("parent %q of %q must be added first", e.Parent, e.Name)
			}
			cat.Parent = &parent.ID
		}
		if err := categories.Add(ctx, cat); err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", e.Name, err)
		}
		created[e.Name] = *cat
	}
	return created, nil
}
