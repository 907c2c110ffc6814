package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/service"
)

// Spending windows, measured back from now.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
)

// Spending is the amount spent in each window.
type Spending struct {
	Day   float64
	Week  float64
	Month float64
}

// Period pairs the spending in one window with its limit.
type Period struct {
	Name  string
	Spent float64
	Limit float64
}

// Remaining returns how much of the limit is left; negative when over.
func (p Period) Remaining() float64 {
	return p.Limit - p.Spent
}

// Over reports whether spending exceeded the limit.
func (p Period) Over() bool {
	return p.Spent > p.Limit
}

// Overview is the budget compared against recent spending.
type Overview struct {
	Budget  model.Budget
	Periods []Period
}

// BudgetPresenter manages the single budget row and compares it with
// spending reported by an ExpensePresenter.
type BudgetPresenter struct {
	repo     service.Repository[model.Budget]
	expenses *ExpensePresenter
	now      func() time.Time
}

// NewBudgetPresenter creates a budget presenter.
func NewBudgetPresenter(repo service.Repository[model.Budget], expenses *ExpensePresenter) *BudgetPresenter {
	return &BudgetPresenter{
		repo:     repo,
		expenses: expenses,
		now:      time.Now,
	}
}

// Budget returns the budget, creating it with amount 0 if none exists.
func (p *BudgetPresenter) Budget(ctx context.Context) (*model.Budget, error) {
	budgets, err := p.repo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}

	switch len(budgets) {
	case 0:
		budget := &model.Budget{}
		if _, err := p.repo.Add(ctx, budget); err != nil {
			return nil, fmt.Errorf("failed to create budget: %w", err)
		}
		slog.Info("created empty budget", "id", budget.ID)
		return budget, nil
	case 1:
		return budgets[0], nil
	default:
		return nil, fmt.Errorf("%w: found %d budget rows, expected 1", common.ErrDatabaseCorrupted, len(budgets))
	}
}

// Update stores a new budget amount on an existing budget row.
func (p *BudgetPresenter) Update(ctx context.Context, budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget is nil", common.ErrInvalidArgument)
	}
	if budget.Amount < 0 {
		return fmt.Errorf("%w: budget cannot be negative", common.ErrInvalidArgument)
	}
	if err := p.repo.Update(ctx, budget); err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return nil
}

// SetAmount sets the daily budget, creating the budget row if necessary.
func (p *BudgetPresenter) SetAmount(ctx context.Context, amount float64) (*model.Budget, error) {
	budget, err := p.Budget(ctx)
	if err != nil {
		return nil, err
	}

	budget.Amount = amount
	if err := p.Update(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// Spent returns what was spent in the last day, week and month.
func (p *BudgetPresenter) Spent() (Spending, error) {
	now := p.now()

	day, err := p.expenses.SpentBetween(now, now.Add(-Day))
	if err != nil {
		return Spending{}, err
	}
	week, err := p.expenses.SpentBetween(now, now.Add(-Week))
	if err != nil {
		return Spending{}, err
	}
	month, err := p.expenses.SpentBetween(now, now.Add(-Month))
	if err != nil {
		return Spending{}, err
	}

	return Spending{Day: day, Week: week, Month: month}, nil
}

// Overview returns the budget with each window's spending and limit.
func (p *BudgetPresenter) Overview(ctx context.Context) (*Overview, error) {
	budget, err := p.Budget(ctx)
	if err != nil {
		return nil, err
	}
	spent, err := p.Spent()
	if err != nil {
		return nil, err
	}

	return &Overview{
		Budget: *budget,
		Periods: []Period{
			{Name: "Day", Spent: spent.Day, Limit: budget.Amount},
			{Name: "Week", Spent: spent.Week, Limit: budget.Weekly()},
			{Name: "Month", Spent: spent.Month, Limit: budget.Monthly()},
		},
	}, nil
}
