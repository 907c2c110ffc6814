// Package presenter holds the application logic between the repositories
// and the user interfaces: category trees, expenses and the budget.
package presenter

import (
	"context"
	"fmt"

	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/service"
	"github.com/Veraticus/bookkeeper/internal/storage"
)

// Set bundles the presenters together with the repositories they were
// built from.
type Set struct {
	CategoryRepo service.Repository[model.Category]
	ExpenseRepo  service.Repository[model.Expense]
	BudgetRepo   service.Repository[model.Budget]

	Categories *CategoryPresenter
	Expenses   *ExpensePresenter
	Budget     *BudgetPresenter
}

// Load obtains one repository per record type from the factory and builds
// the presenters on top of them.
func Load(ctx context.Context, factory *storage.Factory) (*Set, error) {
	categories, err := storage.For[model.Category](ctx, factory, model.CategoryDescriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to open category repository: %w", err)
	}
	expenses, err := storage.For[model.Expense](ctx, factory, model.ExpenseDescriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to open expense repository: %w", err)
	}
	budgets, err := storage.For[model.Budget](ctx, factory, model.BudgetDescriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to open budget repository: %w", err)
	}

	return New(ctx, categories, expenses, budgets)
}

// New builds the presenters from existing repositories.
func New(ctx context.Context, categories service.Repository[model.Category], expenses service.Repository[model.Expense], budgets service.Repository[model.Budget]) (*Set, error) {
	cp, err := NewCategoryPresenter(ctx, categories)
	if err != nil {
		return nil, err
	}
	ep, err := NewExpensePresenter(ctx, expenses, categories)
	if err != nil {
		return nil, err
	}

	return &Set{
		CategoryRepo: categories,
		ExpenseRepo:  expenses,
		BudgetRepo:   budgets,
		Categories:   cp,
		Expenses:     ep,
		Budget:       NewBudgetPresenter(budgets, ep),
	}, nil
}

// Reset empties every table and restarts identity numbering.
func (s *Set) Reset(ctx context.Context) error {
	if err := s.CategoryRepo.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset categories: %w", err)
	}
	if err := s.ExpenseRepo.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset expenses: %w", err)
	}
	if err := s.BudgetRepo.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset budget: %w", err)
	}

	s.Categories.categories = nil
	s.Expenses.expenses = nil
	return nil
}
