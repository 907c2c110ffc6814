package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/service"
	"github.com/shopspring/decimal"
)

// ExpensePresenter mirrors the expense table in memory and answers the
// spending questions asked by the budget view.
type ExpensePresenter struct {
	repo       service.Repository[model.Expense]
	categories service.Repository[model.Category]
	now        func() time.Time
	expenses   []*model.Expense
}

// NewExpensePresenter loads every expense from repo. categories is used to
// resolve category names.
func NewExpensePresenter(ctx context.Context, repo service.Repository[model.Expense], categories service.Repository[model.Category]) (*ExpensePresenter, error) {
	expenses, err := repo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	slog.Debug("loaded expenses", "count", len(expenses))
	return &ExpensePresenter{
		repo:       repo,
		categories: categories,
		expenses:   expenses,
		now:        time.Now,
	}, nil
}

// Reload replaces the in-memory mirror with the current table contents.
func (p *ExpensePresenter) Reload(ctx context.Context) error {
	expenses, err := p.repo.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to reload expenses: %w", err)
	}
	p.expenses = expenses
	return nil
}

// Expenses returns copies of all expenses in storage order.
func (p *ExpensePresenter) Expenses() []model.Expense {
	out := make([]model.Expense, len(p.expenses))
	for i, e := range p.expenses {
		out[i] = *e
	}
	return out
}

// Get returns a copy of the expense with the given id.
func (p *ExpensePresenter) Get(id int64) (model.Expense, bool) {
	if e := p.find(id); e != nil {
		return *e, true
	}
	return model.Expense{}, false
}

// ByCategory queries storage for the expenses booked on one category.
func (p *ExpensePresenter) ByCategory(ctx context.Context, categoryID int64) ([]model.Expense, error) {
	found, err := p.repo.GetAll(ctx, service.Filter{"category": categoryID})
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses for category %d: %w", categoryID, err)
	}

	out := make([]model.Expense, len(found))
	for i, e := range found {
		out[i] = *e
	}
	return out, nil
}

// Add stores a new expense. Missing dates default to now.
func (p *ExpensePresenter) Add(ctx context.Context, expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense is nil", common.ErrInvalidArgument)
	}

	now := p.now()
	if expense.WasteDate.IsZero() {
		expense.WasteDate = now
	}
	if expense.AddedDate.IsZero() {
		expense.AddedDate = now
	}

	if _, err := p.repo.Add(ctx, expense); err != nil {
		return fmt.Errorf("failed to add expense: %w", err)
	}

	stored := *expense
	p.expenses = append(p.expenses, &stored)
	slog.Debug("added expense", "id", expense.ID, "amount", expense.Amount, "category", expense.Category)
	return nil
}

// Update stores new values for an existing expense.
func (p *ExpensePresenter) Update(ctx context.Context, expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense is nil", common.ErrInvalidArgument)
	}
	if err := p.repo.Update(ctx, expense); err != nil {
		return fmt.Errorf("failed to update expense %d: %w", expense.ID, err)
	}

	if current := p.find(expense.ID); current != nil {
		*current = *expense
	} else {
		stored := *expense
		p.expenses = append(p.expenses, &stored)
	}
	return nil
}

// Delete removes the expense with the given id.
func (p *ExpensePresenter) Delete(ctx context.Context, id int64) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense %d: %w", id, err)
	}

	for i, e := range p.expenses {
		if e.ID == id {
			p.expenses = append(p.expenses[:i], p.expenses[i+1:]...)
			break
		}
	}
	return nil
}

// CategoryName resolves a category id to its name. The boolean is false
// when no such category exists.
func (p *ExpensePresenter) CategoryName(ctx context.Context, id int64) (string, bool, error) {
	category, err := p.categories.Get(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up category %d: %w", id, err)
	}
	if category == nil {
		return "", false, nil
	}
	return category.Name, true, nil
}

// SpentBetween sums the expenses whose waste date lies strictly between end
// and start. start is the more recent bound and must be after end.
func (p *ExpensePresenter) SpentBetween(start, end time.Time) (float64, error) {
	if !start.After(end) {
		return 0, fmt.Errorf("%w: %s is not after %s", common.ErrInvalidPeriod,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	total := decimal.Zero
	for _, e := range p.expenses {
		if e.WasteDate.Before(start) && e.WasteDate.After(end) {
			total = total.Add(decimal.NewFromFloat(e.Amount))
		}
	}
	return total.InexactFloat64(), nil
}

func (p *ExpensePresenter) find(id int64) *model.Expense {
	for _, e := range p.expenses {
		if e.ID == id {
			return e
		}
	}
	return nil
}
