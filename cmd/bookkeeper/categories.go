package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/spf13/cobra"
)

func categoriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage the category tree",
		Long: `Categories form a tree. Every expense is booked on one category, and
deleting a category removes everything below it.`,
		Example: `  # Build a small tree
  bookkeeper categories add Food
  bookkeeper categories add Coffee --parent Food

  # Show the tree
  bookkeeper categories list`,
	}

	cmd.AddCommand(listCategoriesCmd(opts))
	cmd.AddCommand(addCategoryCmd(opts))
	cmd.AddCommand(updateCategoryCmd(opts))
	cmd.AddCommand(deleteCategoryCmd(opts))

	return cmd
}

func listCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(_ context.Context, s *session) error {
				out := cmd.OutOrStdout()
				roots := s.set.Categories.Roots()
				if len(roots) == 0 {
					writeLine(out, cli.SubtleStyle.Render("No categories yet. Add one with 'bookkeeper categories add <name>'."))
					return nil
				}

				writeLine(out, cli.FormatTitle("Categories"))
				for _, root := range roots {
					printTree(out, s.set.Categories, root, "", map[int64]bool{})
				}
				return nil
			})
		},
	}
}

func printTree(out io.Writer, categories *presenter.CategoryPresenter, c model.Category, indent string, seen map[int64]bool) {
	if seen[c.ID] {
		return
	}
	seen[c.ID] = true
	printf(out, "%s%s %s\n", indent, c.Name, cli.SubtleStyle.Render(fmt.Sprintf("(#%d)", c.ID)))
	for _, child := range categories.Children(c.ID) {
		printTree(out, categories, child, indent+"  ", seen)
	}
}

func addCategoryCmd(opts *rootOptions) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				category := &model.Category{Name: args[0]}
				if parent != "" {
					id, err := resolveCategory(s.set, parent)
					if err != nil {
						return err
					}
					category.Parent = &id
				}

				if err := s.set.Categories.Add(ctx, category); err != nil {
					return categoryError(err)
				}
				writeLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created %s (#%d)",
					s.set.Categories.Path(category.ID), category.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent category name or id")
	return cmd
}

func updateCategoryCmd(opts *rootOptions) *cobra.Command {
	var name, parent string
	var root bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or move a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root && parent != "" {
				return common.NewUserError("--root and --parent cannot be combined", common.ErrInvalidArgument)
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				category, ok := s.set.Categories.Get(id)
				if !ok {
					return common.NewUserError(fmt.Sprintf("no category #%d", id), common.ErrNotFound)
				}

				if name != "" {
					category.Name = name
				}
				switch {
				case root:
					category.Parent = nil
				case parent != "":
					parentID, err := resolveCategory(s.set, parent)
					if err != nil {
						return err
					}
					category.Parent = &parentID
				}

				if err := s.set.Categories.Update(ctx, &category); err != nil {
					return categoryError(err)
				}
				writeLine(cmd.OutOrStdout(), cli.FormatSuccess("Updated "+s.set.Categories.Path(id)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "New parent category name or id")
	cmd.Flags().BoolVar(&root, "root", false, "Move the category to the top level")
	return cmd
}

func deleteCategoryCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and all categories below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				if _, ok := s.set.Categories.Get(id); !ok {
					return common.NewUserError(fmt.Sprintf("no category #%d", id), common.ErrNotFound)
				}

				subtree := countSubtree(s.set.Categories, id)
				question := fmt.Sprintf("Delete %s", s.set.Categories.Path(id))
				if subtree > 1 {
					question += fmt.Sprintf(" and %d categories below it", subtree-1)
				}
				ok, err := confirm(cmd, force, question+"?")
				if err != nil {
					return err
				}
				if !ok {
					writeLine(out, "Delete canceled.")
					return nil
				}

				removed, err := s.set.Categories.Delete(ctx, id)
				if err != nil {
					return err
				}
				writeLine(out, cli.FormatSuccess(fmt.Sprintf("Deleted %d categories", len(removed))))

				orphans := 0
				for _, victim := range removed {
					booked, err := s.set.Expenses.ByCategory(ctx, victim)
					if err != nil {
						return err
					}
					orphans += len(booked)
				}
				if orphans > 0 {
					writeLine(out, cli.FormatWarning(fmt.Sprintf("%d expenses still point at deleted categories", orphans)))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func countSubtree(categories *presenter.CategoryPresenter, id int64) int {
	count := 0
	queue := []int64{id}
	seen := map[int64]bool{id: true}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		count++
		for _, child := range categories.Children(current) {
			if !seen[child.ID] {
				seen[child.ID] = true
				queue = append(queue, child.ID)
			}
		}
	}
	return count
}

// categoryError turns presenter validation failures into messages for the
// user.
func categoryError(err error) error {
	if common.IsUserError(err) {
		return err
	}
	for _, sentinel := range []error{common.ErrDuplicateEntry, common.ErrInvalidArgument, common.ErrNotFound} {
		if errors.Is(err, sentinel) {
			return common.NewUserError("cannot save category", err)
		}
	}
	return err
}
