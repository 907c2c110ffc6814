package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/spf13/cobra"
)

func resetCmd(opts *rootOptions) *cobra.Command {
	var force, noCheckpoint bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all categories, expenses and the budget",
		Long: `Reset drops and recreates every table, so ids start again at 1.

A checkpoint is taken first unless --no-checkpoint is given, so the data can
be brought back with 'bookkeeper checkpoint restore'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				categories := len(s.set.Categories.Categories())
				expenses := len(s.set.Expenses.Expenses())

				if !force {
					printf(out, "This will delete %d categories, %d expenses and the budget.\n", categories, expenses)
				}
				ok, err := confirm(cmd, force, "Are you sure you want to continue?")
				if err != nil {
					return err
				}
				if !ok {
					writeLine(out, "Reset canceled.")
					return nil
				}

				if !noCheckpoint && s.store != nil && s.store.Path() != storage.MemoryPath {
					manager, err := s.checkpoints()
					if err != nil {
						return err
					}
					info, err := manager.AutoCheckpoint(ctx, "reset")
					if err != nil {
						return fmt.Errorf("failed to create checkpoint before reset: %w", err)
					}
					slog.Info("created checkpoint before reset", "id", info.ID)
					writeLine(out, cli.FormatInfo("Saved checkpoint "+info.ID))
				}

				if err := s.set.Reset(ctx); err != nil {
					return err
				}
				writeLine(out, cli.FormatSuccess(fmt.Sprintf("Deleted %d categories and %d expenses", categories, expenses)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "Do not save a checkpoint first")
	return cmd
}
