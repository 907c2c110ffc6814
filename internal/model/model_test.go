package model

import (
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/record"
	"github.com/stretchr/testify/assert"
)

func TestCategory_Parent(t *testing.T) {
	parent := int64(3)
	tests := []struct {
		name     string
		category Category
		wantRoot bool
		parentOf int64
	}{
		{name: "root", category: Category{ID: 1, Name: "Food"}, wantRoot: true},
		{name: "child", category: Category{ID: 4, Name: "Coffee", Parent: &parent}, parentOf: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRoot, tt.category.IsRoot())
			assert.Equal(t, !tt.wantRoot, tt.category.HasParent(tt.parentOf))
			assert.False(t, tt.category.HasParent(99))
		})
	}
}

func TestBudget_Limits(t *testing.T) {
	b := &Budget{Amount: 12.5}
	assert.InDelta(t, 87.5, b.Weekly(), 1e-9)
	assert.InDelta(t, 375.0, b.Monthly(), 1e-9)
}

func TestExpense_GenerateHash(t *testing.T) {
	day := time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)
	base := Expense{Amount: 25.5, WasteDate: day, Comment: "STARBUCKS"}

	tests := []struct {
		name  string
		other Expense
		same  bool
	}{
		{name: "identical", other: base, same: true},
		{name: "later the same day", other: Expense{Amount: 25.5, WasteDate: day.Add(5 * time.Hour), Comment: "STARBUCKS"}, same: true},
		{name: "different category and id", other: Expense{ID: 8, Category: 2, Amount: 25.5, WasteDate: day, Comment: "STARBUCKS"}, same: true},
		{name: "different amount", other: Expense{Amount: 25.51, WasteDate: day, Comment: "STARBUCKS"}},
		{name: "different day", other: Expense{Amount: 25.5, WasteDate: day.AddDate(0, 0, 1), Comment: "STARBUCKS"}},
		{name: "different comment", other: Expense{Amount: 25.5, WasteDate: day, Comment: "DUNKIN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := base.GenerateHash(), tt.other.GenerateHash()
			assert.Len(t, a, 64)
			assert.Equal(t, tt.same, a == b)
		})
	}
}

func TestDescriptors(t *testing.T) {
	assert.Equal(t, []string{"name", "parent"}, CategoryDescriptor.Names())
	assert.Equal(t, []string{"amount", "category", "waste_date", "added_date", "comment"}, ExpenseDescriptor.Names())
	assert.Equal(t, []string{"amount"}, BudgetDescriptor.Names())

	parent, ok := CategoryDescriptor.Lookup("parent")
	assert.True(t, ok)
	assert.True(t, parent.Nullable)
	assert.Equal(t, record.Integer, parent.Type)
}

func TestClone_Expense(t *testing.T) {
	src := &Expense{
		ID:        5,
		Amount:    3,
		Category:  2,
		WasteDate: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		Comment:   "bus",
	}
	dst := record.Clone[Expense](ExpenseDescriptor, src)
	assert.Equal(t, *src, *dst)

	dst.Comment = "train"
	assert.Equal(t, "bus", src.Comment)
}
