// Package storage provides the data persistence layer for bookkeeper.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/record"
	"github.com/Veraticus/bookkeeper/internal/service"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidDescriptor = errors.New("invalid record descriptor")
)

// identityColumn is the name of the surrogate key column in every table.
const identityColumn = "id"

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDescriptor checks that a descriptor can be turned into a table.
func validateDescriptor[T any](d record.Descriptor[T]) error {
	if !common.IsIdentifier(d.Name) {
		return fmt.Errorf("%w: type name %q", ErrInvalidDescriptor, d.Name)
	}

	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		if !common.IsIdentifier(f.Name) {
			return fmt.Errorf("%w: field %d has name %q", ErrInvalidDescriptor, i, f.Name)
		}
		if strings.EqualFold(f.Name, identityColumn) {
			return fmt.Errorf("%w: field name %q is reserved", ErrInvalidDescriptor, f.Name)
		}
		if seen[strings.ToLower(f.Name)] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidDescriptor, f.Name)
		}
		if f.Get == nil || f.Set == nil {
			return fmt.Errorf("%w: field %q has no accessors", ErrInvalidDescriptor, f.Name)
		}
		switch f.Type {
		case record.Integer, record.Real, record.Text, record.Timestamp:
		default:
			return fmt.Errorf("%w: field %q has type %v", ErrInvalidDescriptor, f.Name, f.Type)
		}
		seen[strings.ToLower(f.Name)] = true
	}
	return nil
}

// filterTerm is one validated filter entry.
type filterTerm struct {
	column string
	value  any
}

// validateFilter resolves filter keys against the descriptor and converts
// values to their stored form. Terms are sorted by declaration order so the
// generated SQL is stable.
func validateFilter[T any](d record.Descriptor[T], filter service.Filter) ([]filterTerm, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	terms := make([]filterTerm, 0, len(filter))
	matched := 0
	for _, f := range d.Fields {
		v, ok := filter[f.Name]
		if !ok {
			continue
		}
		matched++
		normalized, err := normalize(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: filter on %q: %v", common.ErrInvalidArgument, f.Name, err)
		}
		terms = append(terms, filterTerm{column: f.Name, value: encode(f.Type, normalized)})
	}

	if matched != len(filter) {
		for name := range filter {
			if _, ok := d.Lookup(name); !ok {
				return nil, fmt.Errorf("%w: unknown field %q", common.ErrInvalidArgument, name)
			}
		}
	}
	return terms, nil
}

// normalize converts a caller supplied value to the canonical Go type of
// the field: int64, float64, string, time.Time, or nil.
func normalize(t record.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case record.Integer:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case *int64:
			if n == nil {
				return nil, nil
			}
			return *n, nil
		}
	case record.Real:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case record.Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case record.Timestamp:
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return nil, err
			}
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) is not a valid %s", v, v, t)
}
