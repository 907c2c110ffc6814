package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/ofx"
	"github.com/spf13/cobra"
)

type importOptions struct {
	category string
	dryRun   bool
	create   bool
}

func importOFXCmd(opts *rootOptions) *cobra.Command {
	var imp importOptions

	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import expenses from OFX/QFX statements",
		Long: `Import the debits of bank and credit card statements exported as OFX or QFX
files. Every imported expense is booked on the given category. Expenses that
already exist with the same date, amount and comment are skipped.`,
		Example: `  # Import one statement
  bookkeeper import-ofx ~/Downloads/checking_jan.qfx --category Uncategorized

  # Import every statement in a directory, creating the category if needed
  bookkeeper import-ofx ~/Downloads/*.qfx --category Imported --create-category`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if imp.category == "" {
				return common.NewUserError("--category is required", common.ErrInvalidArgument)
			}
			files, err := expandFiles(args)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				return runImportOFX(ctx, cmd, s, files, imp)
			})
		},
	}

	cmd.Flags().StringVarP(&imp.category, "category", "c", "", "Category name or id to book the expenses on")
	cmd.Flags().BoolVar(&imp.create, "create-category", false, "Create the category as a root if it does not exist")
	cmd.Flags().BoolVarP(&imp.dryRun, "dry-run", "d", false, "Preview import without saving")
	return cmd
}

// expandFiles resolves glob patterns. Patterns that match nothing are
// kept when they name an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("invalid pattern %s", pattern), err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, common.NewUserError("no files found to import", common.ErrNotFound)
	}
	return files, nil
}

func runImportOFX(ctx context.Context, cmd *cobra.Command, s *session, files []string, imp importOptions) error {
	out := cmd.OutOrStdout()

	categoryID, err := importCategory(ctx, s, imp)
	if err != nil {
		return err
	}

	var expenses []model.Expense
	parser := ofx.NewParser()
	for _, path := range files {
		entries, err := parseStatement(ctx, parser, path)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			writeLine(out, cli.FormatWarning(fmt.Sprintf("Skipped %s: %v", filepath.Base(path), err)))
			continue
		}
		found := ofx.Expenses(entries, categoryID)
		slog.Info("Processed file",
			"file", filepath.Base(path),
			"entries", len(entries),
			"debits", len(found))
		expenses = append(expenses, found...)
	}

	fresh, duplicates := dedupe(s.set.Expenses.Expenses(), expenses)
	if len(fresh) == 0 {
		writeLine(out, cli.FormatInfo(fmt.Sprintf("Nothing new to import (%d duplicates skipped).", duplicates)))
		return nil
	}

	if imp.dryRun {
		writeLine(out, cli.RenderTable(
			[]string{"ID", "Date", "Category", "Amount", "Comment"},
			expenseRows(s.set, fresh)))
		writeLine(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d expenses totalling %s would be imported, %d duplicates skipped.",
			len(fresh), cli.FormatAmount(total(fresh)), duplicates)))
		return nil
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(ctx, "Import", true)
	defer stop()
	bar := cli.NewProgressBar(len(fresh), "Importing", cmd.ErrOrStderr())

	imported := 0
	for i := range fresh {
		if ctx.Err() != nil {
			break
		}
		if err := s.set.Expenses.Add(ctx, &fresh[i]); err != nil {
			return fmt.Errorf("failed to import expense %d of %d: %w", i+1, len(fresh), err)
		}
		imported++
		if err := bar.Add(1); err != nil {
			slog.Debug("failed to update progress bar", "error", err)
		}
	}

	writeLine(out, cli.FormatSuccess(fmt.Sprintf("Imported %d expenses totalling %s on %s, %d duplicates skipped.",
		imported, cli.FormatAmount(total(fresh[:imported])), s.set.Categories.Path(categoryID), duplicates)))
	if handler.WasInterrupted() {
		return ctx.Err()
	}
	return nil
}

func importCategory(ctx context.Context, s *session, imp importOptions) (int64, error) {
	id, err := resolveCategory(s.set, imp.category)
	if err == nil || !imp.create {
		return id, err
	}

	category := &model.Category{Name: imp.category}
	if imp.dryRun {
		return 0, nil
	}
	if err := s.set.Categories.Add(ctx, category); err != nil {
		return 0, categoryError(err)
	}
	return category.ID, nil
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close file", "file", path, "error", err)
		}
	}()
	return parser.ParseFile(ctx, f)
}

// dedupe drops candidates already stored or repeated within candidates.
func dedupe(existing, candidates []model.Expense) ([]model.Expense, int) {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.GenerateHash()] = true
	}

	var fresh []model.Expense
	duplicates := 0
	for _, c := range candidates {
		hash := c.GenerateHash()
		if seen[hash] {
			duplicates++
			continue
		}
		seen[hash] = true
		fresh = append(fresh, c)
	}
	return fresh, duplicates
}
