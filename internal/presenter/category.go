package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/model"
	"github.com/Veraticus/bookkeeper/internal/service"
)

// CategoryPresenter mirrors the category table in memory and enforces the
// tree rules: unique names, existing parents, no cycles, cascading deletes.
type CategoryPresenter struct {
	repo       service.Repository[model.Category]
	categories []*model.Category
}

// NewCategoryPresenter loads every category from repo.
func NewCategoryPresenter(ctx context.Context, repo service.Repository[model.Category]) (*CategoryPresenter, error) {
	categories, err := repo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	slog.Debug("loaded categories", "count", len(categories))
	return &CategoryPresenter{repo: repo, categories: categories}, nil
}

// Categories returns copies of all categories in storage order.
func (p *CategoryPresenter) Categories() []model.Category {
	out := make([]model.Category, len(p.categories))
	for i, c := range p.categories {
		out[i] = copyCategory(c)
	}
	return out
}

// Get returns a copy of the category with the given id.
func (p *CategoryPresenter) Get(id int64) (model.Category, bool) {
	if c := p.find(id); c != nil {
		return copyCategory(c), true
	}
	return model.Category{}, false
}

// FindByName returns the id of the category with the given name.
func (p *CategoryPresenter) FindByName(name string) (int64, bool) {
	for _, c := range p.categories {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}

// NameAvailable reports whether no category uses name yet.
func (p *CategoryPresenter) NameAvailable(name string) bool {
	_, used := p.FindByName(name)
	return !used
}

// Children returns the direct children of the category with the given id.
func (p *CategoryPresenter) Children(id int64) []model.Category {
	var out []model.Category
	for _, c := range p.categories {
		if c.HasParent(id) {
			out = append(out, copyCategory(c))
		}
	}
	return out
}

// Roots returns the categories without a parent.
func (p *CategoryPresenter) Roots() []model.Category {
	var out []model.Category
	for _, c := range p.categories {
		if c.IsRoot() {
			out = append(out, copyCategory(c))
		}
	}
	return out
}

// Path returns the category names from the root down to id, joined by " / ".
func (p *CategoryPresenter) Path(id int64) string {
	var parts []string
	seen := make(map[int64]bool)
	for c := p.find(id); c != nil && !seen[c.ID]; {
		seen[c.ID] = true
		parts = append([]string{c.Name}, parts...)
		if c.Parent == nil {
			break
		}
		c = p.find(*c.Parent)
	}
	return strings.Join(parts, " / ")
}

// Add stores a new category and appends it to the mirror.
func (p *CategoryPresenter) Add(ctx context.Context, category *model.Category) error {
	if err := p.validate(category); err != nil {
		return err
	}

	if _, err := p.repo.Add(ctx, category); err != nil {
		return fmt.Errorf("failed to add category %q: %w", category.Name, err)
	}

	stored := copyCategory(category)
	p.categories = append(p.categories, &stored)
	slog.Info("created category", "name", category.Name, "id", category.ID)
	return nil
}

// Update stores new values for an existing category.
func (p *CategoryPresenter) Update(ctx context.Context, category *model.Category) error {
	current := p.find(category.ID)
	if current == nil {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, category.ID)
	}
	if err := p.validate(category); err != nil {
		return err
	}

	if err := p.repo.Update(ctx, category); err != nil {
		return fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}

	*current = copyCategory(category)
	return nil
}

// Delete removes the category and its whole subtree. The subtree is
// collected completely before the first row is deleted. It returns the
// removed ids, the requested category first.
func (p *CategoryPresenter) Delete(ctx context.Context, id int64) ([]int64, error) {
	if p.find(id) == nil {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}

	queue := []int64{id}
	var doomed []int64
	visited := map[int64]bool{id: true}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		doomed = append(doomed, current)
		for _, c := range p.categories {
			if c.HasParent(current) && !visited[c.ID] {
				visited[c.ID] = true
				queue = append(queue, c.ID)
			}
		}
	}

	for _, victim := range doomed {
		if err := p.repo.Delete(ctx, victim); err != nil {
			return nil, fmt.Errorf("failed to delete category %d: %w", victim, err)
		}
		p.remove(victim)
	}

	slog.Info("deleted category subtree", "id", id, "count", len(doomed))
	return doomed, nil
}

func (p *CategoryPresenter) validate(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category is nil", common.ErrInvalidArgument)
	}
	name := strings.TrimSpace(category.Name)
	if name == "" {
		return fmt.Errorf("%w: category name cannot be empty", common.ErrInvalidArgument)
	}
	if owner, used := p.FindByName(category.Name); used && owner != category.ID {
		return fmt.Errorf("%w: category %q", common.ErrDuplicateEntry, category.Name)
	}
	if category.Parent == nil {
		return nil
	}

	parent := *category.Parent
	if p.find(parent) == nil {
		return fmt.Errorf("%w: parent category %d does not exist", common.ErrInvalidArgument, parent)
	}
	if category.ID == 0 {
		return nil
	}
	seen := make(map[int64]bool)
	for c := p.find(parent); c != nil && !seen[c.ID]; {
		seen[c.ID] = true
		if c.ID == category.ID {
			return fmt.Errorf("%w: category %d cannot be its own ancestor", common.ErrInvalidArgument, category.ID)
		}
		if c.Parent == nil {
			break
		}
		c = p.find(*c.Parent)
	}
	return nil
}

func (p *CategoryPresenter) find(id int64) *model.Category {
	for _, c := range p.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (p *CategoryPresenter) remove(id int64) {
	for i, c := range p.categories {
		if c.ID == id {
			p.categories = append(p.categories[:i], p.categories[i+1:]...)
			return
		}
	}
}

func copyCategory(c *model.Category) model.Category {
	out := *c
	if c.Parent != nil {
		parent := *c.Parent
		out.Parent = &parent
	}
	return out
}
