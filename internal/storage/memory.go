package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/record"
	"github.com/Veraticus/bookkeeper/internal/service"
)

// MemoryRepository keeps records in process memory with the same contract
// as Repository. Records are copied on the way in and on the way out.
type MemoryRepository[T any, P record.Model[T]] struct {
	desc    record.Descriptor[T]
	records []P
	nextID  int64
	mu      sync.Mutex
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository[T any, P record.Model[T]](desc record.Descriptor[T]) (*MemoryRepository[T, P], error) {
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}
	return &MemoryRepository[T, P]{desc: desc, nextID: 1}, nil
}

// Reset discards every record and restarts identities at 1.
func (m *MemoryRepository[T, P]) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.nextID = 1
	return nil
}

// Add stores a copy of rec and writes the assigned identity back into it.
func (m *MemoryRepository[T, P]) Add(_ context.Context, rec *T) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("%w: %w: record", common.ErrInvalidArgument, ErrNilParameter)
	}
	p := P(rec)
	if p.Identity() != 0 {
		return 0, fmt.Errorf("%w: record already has identity %d", common.ErrInvalidArgument, p.Identity())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	p.SetIdentity(id)
	m.records = append(m.records, m.stored(p))
	return id, nil
}

// Get returns a copy of the record with the given identity, or nil.
func (m *MemoryRepository[T, P]) Get(_ context.Context, id int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.index(id); i >= 0 {
		return m.clone(m.records[i]), nil
	}
	return nil, nil
}

// GetAll returns copies of the records matching filter in insertion order.
func (m *MemoryRepository[T, P]) GetAll(_ context.Context, filter service.Filter) ([]*T, error) {
	terms, err := validateFilter(m.desc, filter)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*T
	for _, rec := range m.records {
		if m.matches(rec, terms) {
			out = append(out, m.clone(rec))
		}
	}
	return out, nil
}

// Update replaces the stored copy of the record with rec's identity.
func (m *MemoryRepository[T, P]) Update(_ context.Context, rec *T) error {
	if rec == nil {
		return fmt.Errorf("%w: %w: record", common.ErrInvalidArgument, ErrNilParameter)
	}
	p := P(rec)

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(p.Identity())
	if i < 0 {
		return fmt.Errorf("%w: no object with id=%d", common.ErrInvalidArgument, p.Identity())
	}
	m.records[i] = m.stored(p)
	return nil
}

// Delete removes the record with the given identity.
func (m *MemoryRepository[T, P]) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: no object with id=%d", common.ErrNotFound, id)
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return nil
}

// DeleteAll removes every record. Identities keep counting up.
func (m *MemoryRepository[T, P]) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

// Count returns the number of stored records.
func (m *MemoryRepository[T, P]) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *MemoryRepository[T, P]) index(id int64) int {
	for i, rec := range m.records {
		if rec.Identity() == id {
			return i
		}
	}
	return -1
}

func (m *MemoryRepository[T, P]) clone(rec P) P {
	return record.Clone[T, P](m.desc, rec)
}

// stored copies rec with timestamps in UTC, the form the SQL backend reads back.
func (m *MemoryRepository[T, P]) stored(rec P) P {
	out := m.clone(rec)
	for _, f := range m.desc.Fields {
		if f.Type != record.Timestamp {
			continue
		}
		if ts, ok := f.Get(out).(time.Time); ok {
			f.Set(out, ts.UTC())
		}
	}
	return out
}

// matches compares stored values the same way the SQL backend does: after
// conversion to their stored form.
func (m *MemoryRepository[T, P]) matches(rec P, terms []filterTerm) bool {
	for _, term := range terms {
		f, _ := m.desc.Lookup(term.column)
		got := encode(f.Type, f.Get(rec))
		if !equalStored(got, term.value) {
			return false
		}
	}
	return true
}

func equalStored(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
