package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/Veraticus/bookkeeper/internal/tui"
	"github.com/spf13/cobra"
)

func budgetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Compare recent spending with the daily budget",
		Long: `The budget is a daily amount. Spending in the last day, week and month is
compared against the budget, seven times the budget and thirty times the
budget.`,
		Example: `  bookkeeper budget set 40
  bookkeeper budget show
  bookkeeper budget watch`,
	}

	cmd.AddCommand(showBudgetCmd(opts))
	cmd.AddCommand(setBudgetCmd(opts))
	cmd.AddCommand(watchBudgetCmd(opts))

	return cmd
}

func showBudgetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show spending against the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				overview, err := s.set.Budget.Overview(ctx)
				if err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), renderOverview(overview))
				return nil
			})
		},
	}
}

func renderOverview(overview *presenter.Overview) string {
	rows := make([][]string, 0, len(overview.Periods))
	for _, p := range overview.Periods {
		rows = append(rows, []string{
			p.Name,
			cli.FormatAmount(p.Spent),
			cli.FormatAmount(p.Limit),
			cli.FormatRemaining(p.Spent, p.Limit),
		})
	}

	return cli.FormatTitle(fmt.Sprintf("Daily budget %s", cli.FormatAmount(overview.Budget.Amount))) + "\n" +
		cli.RenderTable([]string{"Period", "Spent", "Limit", "Remaining"}, rows)
}

func setBudgetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <amount>",
		Short: "Set the daily budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := cli.ParseAmount(args[0])
			if err != nil {
				return common.NewUserError("invalid amount", err)
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				budget, err := s.set.Budget.SetAmount(ctx, amount)
				if err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Daily budget set to %s (week %s, month %s)",
					cli.FormatAmount(budget.Amount),
					cli.FormatAmount(budget.Weekly()),
					cli.FormatAmount(budget.Monthly()))))
				return nil
			})
		},
	}
}

func watchBudgetCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration
	var recent int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live budget dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				return tui.Run(ctx, tui.NewSetSource(s.set),
					tui.WithRefreshInterval(interval),
					tui.WithRecentLimit(recent))
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "refresh", time.Minute, "How often to reload (0 disables)")
	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent expenses to list")
	return cmd
}
