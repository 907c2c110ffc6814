// Package service defines the interfaces for all application services.
package service

import "context"

// Filter selects records whose named fields equal the given values.
// Entries are combined with AND. A nil or empty Filter matches everything.
type Filter map[string]any

// Repository defines the contract for persisting one record type.
type Repository[T any] interface {
	// Add stores rec, writes the assigned identity back into it and returns it.
	Add(ctx context.Context, rec *T) (int64, error)
	// Get returns nil without error when no record has the identity.
	Get(ctx context.Context, id int64) (*T, error)
	GetAll(ctx context.Context, filter Filter) ([]*T, error)
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)

	// Reset drops and recreates the backing table.
	Reset(ctx context.Context) error
}
