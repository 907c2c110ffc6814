package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/record"
	"github.com/Veraticus/bookkeeper/internal/service"
)

// Storage drivers understood by the factory.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// FactoryOptions configures how repositories are produced.
type FactoryOptions struct {
	Driver string
	// ResetOnOpen drops and recreates each table the first time a
	// repository for it is requested.
	ResetOnOpen bool
}

// Factory hands out repositories bound to one storage location.
type Factory struct {
	store  *Store
	memory map[string]any
	reset  map[string]bool
	opts   FactoryOptions
	mu     sync.Mutex
}

// NewFactory creates a factory. store may be nil for the memory driver.
func NewFactory(store *Store, opts FactoryOptions) (*Factory, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	switch opts.Driver {
	case DriverSQLite:
		if store == nil {
			return nil, fmt.Errorf("%w: store", ErrNilParameter)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", common.ErrInvalidConfig, opts.Driver)
	}

	return &Factory{
		store:  store,
		opts:   opts,
		memory: make(map[string]any),
		reset:  make(map[string]bool),
	}, nil
}

// Store returns the underlying store, nil for the memory driver.
func (f *Factory) Store() *Store {
	return f.store
}

// Driver returns the configured storage driver.
func (f *Factory) Driver() string {
	return f.opts.Driver
}

// For returns a repository for the record type described by desc.
//
// SQLite repositories are created fresh on every call. Memory repositories
// are shared per table so that every caller sees the same records.
func For[T any, P record.Model[T]](ctx context.Context, f *Factory, desc record.Descriptor[T]) (service.Repository[T], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: factory", ErrNilParameter)
	}

	table := strings.ToLower(desc.Name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.opts.Driver == DriverMemory {
		if existing, ok := f.memory[table]; ok {
			repo, ok := existing.(*MemoryRepository[T, P])
			if !ok {
				return nil, fmt.Errorf("%w: table %s is bound to another record type", common.ErrInvalidArgument, table)
			}
			return repo, nil
		}
		repo, err := NewMemoryRepository[T, P](desc)
		if err != nil {
			return nil, err
		}
		f.memory[table] = repo
		return repo, nil
	}

	repo, err := Open[T, P](ctx, f.store, desc)
	if err != nil {
		return nil, err
	}

	if f.opts.ResetOnOpen && !f.reset[table] {
		if err := repo.Reset(ctx); err != nil {
			return nil, err
		}
		f.reset[table] = true
	}
	return repo, nil
}
