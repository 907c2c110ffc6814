package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/bookkeeper/internal/record"
)

// timestampLayout is the canonical text form of stored timestamps.
const timestampLayout = time.RFC3339Nano

// columnType maps a semantic field type to its SQLite column type.
func columnType(t record.FieldType) string {
	switch t {
	case record.Integer:
		return "INTEGER"
	case record.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// encode converts a canonical field value to the value handed to the driver.
func encode(t record.FieldType, v any) any {
	if v == nil {
		return nil
	}
	if t == record.Timestamp {
		if ts, ok := v.(time.Time); ok {
			return ts.UTC().Format(timestampLayout)
		}
	}
	return v
}

// scanTarget allocates a destination for one column of the given type.
func scanTarget(t record.FieldType) any {
	switch t {
	case record.Integer:
		return new(sql.NullInt64)
	case record.Real:
		return new(sql.NullFloat64)
	default:
		return new(sql.NullString)
	}
}

// decode turns a filled scan target back into a canonical field value.
func decode(t record.FieldType, target any) (any, error) {
	switch dst := target.(type) {
	case *sql.NullInt64:
		if !dst.Valid {
			return nil, nil
		}
		return dst.Int64, nil
	case *sql.NullFloat64:
		if !dst.Valid {
			return nil, nil
		}
		return dst.Float64, nil
	case *sql.NullString:
		if !dst.Valid {
			return nil, nil
		}
		if t != record.Timestamp {
			return dst.String, nil
		}
		ts, err := time.Parse(timestampLayout, dst.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", dst.String, err)
		}
		return ts, nil
	default:
		return nil, fmt.Errorf("unsupported scan target %T", target)
	}
}
