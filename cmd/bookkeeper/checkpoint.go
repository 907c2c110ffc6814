package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/spf13/cobra"
)

func checkpointCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

Checkpoints save the current state of the database before risky changes,
so it can be restored later. A checkpoint is taken automatically before
every reset.`,
		Example: `  # Create a checkpoint before importing statements
  bookkeeper checkpoint create --tag pre-import

  # List all checkpoints
  bookkeeper checkpoint list

  # Restore from a checkpoint
  bookkeeper checkpoint restore pre-import`,
	}

	cmd.AddCommand(createCheckpointCmd(opts))
	cmd.AddCommand(listCheckpointsCmd(opts))
	cmd.AddCommand(restoreCheckpointCmd(opts))
	cmd.AddCommand(deleteCheckpointCmd(opts))

	return cmd
}

// withCheckpoints runs fn with the checkpoint manager of the configured
// database.
func (o *rootOptions) withCheckpoints(cmd *cobra.Command, fn func(ctx context.Context, s *session, manager *storage.CheckpointManager) error) error {
	return o.withSession(cmd, func(ctx context.Context, s *session) error {
		manager, err := s.checkpoints()
		if err != nil {
			return err
		}
		return fn(ctx, s, manager)
	})
}

func findCheckpoint(ctx context.Context, manager *storage.CheckpointManager, id string) (*storage.CheckpointMetadata, error) {
	checkpoints, err := manager.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	for i := range checkpoints {
		if checkpoints[i].ID == id {
			return &checkpoints[i], nil
		}
	}
	return nil, common.NewUserError(fmt.Sprintf("no checkpoint %q", id), storage.ErrCheckpointNotFound)
}

func createCheckpointCmd(opts *rootOptions) *cobra.Command {
	var tag, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withCheckpoints(cmd, func(ctx context.Context, _ *session, manager *storage.CheckpointManager) error {
				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}

				out := cmd.OutOrStdout()
				printf(out, "%s Created checkpoint %s (%s)\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(info.ID),
					formatFileSize(info.FileSize))
				if info.Description != "" {
					printf(out, "  Description: %s\n", info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Checkpoint tag/name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the checkpoint")
	return cmd
}

func listCheckpointsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withCheckpoints(cmd, func(ctx context.Context, _ *session, manager *storage.CheckpointManager) error {
				out := cmd.OutOrStdout()
				checkpoints, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}
				if len(checkpoints) == 0 {
					writeLine(out, cli.SubtleStyle.Render("No checkpoints found."))
					return nil
				}

				rows := make([][]string, 0, len(checkpoints))
				for _, cp := range checkpoints {
					kind := "manual"
					if cp.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						cp.ID,
						formatRelativeTime(cp.CreatedAt),
						formatFileSize(cp.FileSize),
						strconv.Itoa(cp.RowCounts["expense"]),
						strconv.Itoa(cp.RowCounts["category"]),
						kind,
					})
				}
				writeLine(out, cli.RenderTable(
					[]string{"NAME", "CREATED", "SIZE", "EXPENSES", "CATEGORIES", "TYPE"}, rows))
				return nil
			})
		},
	}
}

func restoreCheckpointCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore the database from a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkpointID := args[0]

			return opts.withCheckpoints(cmd, func(ctx context.Context, _ *session, manager *storage.CheckpointManager) error {
				out := cmd.OutOrStdout()
				info, err := findCheckpoint(ctx, manager, checkpointID)
				if err != nil {
					return err
				}

				if !force {
					printf(out, "%s This will replace your current data with checkpoint %s.\n",
						cli.WarningStyle.Render(cli.WarningIcon),
						cli.InfoStyle.Render(checkpointID))
					printf(out, "  Created: %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
					if info.Description != "" {
						printf(out, "  Description: %s\n", info.Description)
					}
				}
				ok, err := confirm(cmd, force, "Continue?")
				if err != nil {
					return err
				}
				if !ok {
					writeLine(out, cli.SubtleStyle.Render("Restore canceled."))
					return nil
				}

				if err := manager.Restore(ctx, checkpointID); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}
				printf(out, "%s Restored from checkpoint %s\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(checkpointID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func deleteCheckpointCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkpointID := args[0]

			return opts.withCheckpoints(cmd, func(ctx context.Context, _ *session, manager *storage.CheckpointManager) error {
				out := cmd.OutOrStdout()
				info, err := findCheckpoint(ctx, manager, checkpointID)
				if err != nil {
					return err
				}

				ok, err := confirm(cmd, force, fmt.Sprintf("Permanently delete checkpoint %s (%s)?",
					checkpointID, formatFileSize(info.FileSize)))
				if err != nil {
					return err
				}
				if !ok {
					writeLine(out, cli.SubtleStyle.Render("Deletion canceled."))
					return nil
				}

				if err := manager.Delete(ctx, checkpointID); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				printf(out, "%s Deleted checkpoint %s\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(checkpointID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
