package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func expensesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense", "exp"},
		Short:   "Record and review expenses",
		Example: `  # Record a coffee bought today
  bookkeeper expenses add 3.50 --category Coffee --comment "flat white"

  # Everything booked on Food since the first of the month
  bookkeeper expenses list --category Food --since 2024-06-01`,
	}

	cmd.AddCommand(listExpensesCmd(opts))
	cmd.AddCommand(addExpenseCmd(opts))
	cmd.AddCommand(updateExpenseCmd(opts))
	cmd.AddCommand(deleteExpenseCmd(opts))

	return cmd
}

func listExpensesCmd(opts *rootOptions) *cobra.Command {
	var category, since string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDate(since)
			if err != nil {
				return err
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()

				var expenses []model.Expense
				if category != "" {
					id, err := resolveCategory(s.set, category)
					if err != nil {
						return err
					}
					expenses, err = s.set.Expenses.ByCategory(ctx, id)
					if err != nil {
						return err
					}
				} else {
					expenses = s.set.Expenses.Expenses()
				}

				expenses = filterSince(expenses, from)
				if len(expenses) == 0 {
					writeLine(out, cli.SubtleStyle.Render("No expenses found."))
					return nil
				}
				sort.SliceStable(expenses, func(i, j int) bool {
					return expenses[i].WasteDate.After(expenses[j].WasteDate)
				})

				writeLine(out, cli.RenderTable(
					[]string{"ID", "Date", "Category", "Amount", "Comment"},
					expenseRows(s.set, expenses)))
				writeLine(out, fmt.Sprintf("%d expenses, total %s", len(expenses), cli.FormatAmount(total(expenses))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only expenses booked on this category (name or id)")
	cmd.Flags().StringVar(&since, "since", "", "Only expenses on or after this date (YYYY-MM-DD)")
	return cmd
}

func filterSince(expenses []model.Expense, from time.Time) []model.Expense {
	if from.IsZero() {
		return expenses
	}
	var out []model.Expense
	for _, e := range expenses {
		if !e.WasteDate.Before(from) {
			out = append(out, e)
		}
	}
	return out
}

func expenseRows(set *presenter.Set, expenses []model.Expense) [][]string {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		name := set.Categories.Path(e.Category)
		if name == "" {
			name = fmt.Sprintf("#%d (deleted)", e.Category)
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.WasteDate.Local().Format(dateLayout),
			name,
			cli.FormatAmount(e.Amount),
			e.Comment,
		})
	}
	return rows
}

func total(expenses []model.Expense) float64 {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(decimal.NewFromFloat(e.Amount))
	}
	return sum.InexactFloat64()
}

func addExpenseCmd(opts *rootOptions) *cobra.Command {
	var category, date, comment string

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := cli.ParseAmount(args[0])
			if err != nil {
				return common.NewUserError("invalid amount", err)
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}
			if category == "" {
				return common.NewUserError("--category is required", common.ErrInvalidArgument)
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				id, err := resolveCategory(s.set, category)
				if err != nil {
					return err
				}

				expense := &model.Expense{
					Amount:    amount,
					Category:  id,
					WasteDate: when,
					Comment:   comment,
				}
				if err := s.set.Expenses.Add(ctx, expense); err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s on %s (#%d)",
					cli.FormatAmount(amount), s.set.Categories.Path(id), expense.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name or id")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date the money was spent (default: now)")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Free-form note")
	return cmd
}

func updateExpenseCmd(opts *rootOptions) *cobra.Command {
	var amount, category, date, comment string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				expense, ok := s.set.Expenses.Get(id)
				if !ok {
					return common.NewUserError(fmt.Sprintf("no expense #%d", id), common.ErrNotFound)
				}

				flags := cmd.Flags()
				if flags.Changed("amount") {
					value, err := cli.ParseAmount(amount)
					if err != nil {
						return common.NewUserError("invalid amount", err)
					}
					expense.Amount = value
				}
				if flags.Changed("category") {
					categoryID, err := resolveCategory(s.set, category)
					if err != nil {
						return err
					}
					expense.Category = categoryID
				}
				if flags.Changed("date") {
					when, err := parseDate(date)
					if err != nil {
						return err
					}
					if when.IsZero() {
						return common.NewUserError("--date cannot be empty", common.ErrInvalidArgument)
					}
					expense.WasteDate = when
				}
				if flags.Changed("comment") {
					expense.Comment = comment
				}

				if err := s.set.Expenses.Update(ctx, &expense); err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated expense #%d", id)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "New amount")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category name or id")
	cmd.Flags().StringVarP(&date, "date", "d", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "New note")
	return cmd
}

func deleteExpenseCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				expense, ok := s.set.Expenses.Get(id)
				if !ok {
					return common.NewUserError(fmt.Sprintf("no expense #%d", id), common.ErrNotFound)
				}

				ok, err := confirm(cmd, force, fmt.Sprintf("Delete expense #%d (%s, %s)?",
					id, cli.FormatAmount(expense.Amount), expense.WasteDate.Local().Format(dateLayout)))
				if err != nil {
					return err
				}
				if !ok {
					writeLine(out, "Delete canceled.")
					return nil
				}

				if err := s.set.Expenses.Delete(ctx, id); err != nil {
					return err
				}
				writeLine(out, cli.FormatSuccess(fmt.Sprintf("Deleted expense #%d", id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
