package model

import "github.com/Veraticus/bookkeeper/internal/record"

// Category is a node in the expense category forest.
// A nil Parent marks a root category.
type Category struct {
	Parent *int64
	Name   string
	ID     int64
}

// Identity returns the category's primary key.
func (c *Category) Identity() int64 { return c.ID }

// SetIdentity sets the category's primary key.
func (c *Category) SetIdentity(id int64) { c.ID = id }

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool { return c.Parent == nil }

// HasParent reports whether id is the category's direct parent.
func (c *Category) HasParent(id int64) bool {
	return c.Parent != nil && *c.Parent == id
}

// CategoryDescriptor declares the stored fields of Category.
var CategoryDescriptor = record.Descriptor[Category]{
	Name: "Category",
	Fields: []record.Field[Category]{
		record.TextField("name",
			func(c *Category) string { return c.Name },
			func(c *Category, v string) { c.Name = v }),
		record.OptionalIntField("parent",
			func(c *Category) *int64 { return c.Parent },
			func(c *Category, v *int64) { c.Parent = v }),
	},
}
