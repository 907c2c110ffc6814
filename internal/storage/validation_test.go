package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		paramName string
		wantErr   bool
	}{
		{name: "valid string", value: "test.db", paramName: "dbPath"},
		{name: "empty string", value: "", paramName: "dbPath", wantErr: true},
		{name: "whitespace only", value: "  \t\n  ", paramName: "dbPath", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.value, tt.paramName)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), tt.paramName)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateDescriptor(t *testing.T) {
	name := record.TextField("name",
		func(w *widget) string { return w.Name },
		func(w *widget, v string) { w.Name = v })

	tests := []struct {
		name    string
		desc    record.Descriptor[widget]
		wantErr bool
	}{
		{
			name: "valid descriptor",
			desc: widgetDescriptor,
		},
		{
			name: "no fields",
			desc: record.Descriptor[widget]{Name: "Empty"},
		},
		{
			name:    "type name with space",
			desc:    record.Descriptor[widget]{Name: "My Widget", Fields: []record.Field[widget]{name}},
			wantErr: true,
		},
		{
			name:    "type name with quote",
			desc:    record.Descriptor[widget]{Name: `w"x`, Fields: []record.Field[widget]{name}},
			wantErr: true,
		},
		{
			name: "field name starting with digit",
			desc: record.Descriptor[widget]{Name: "Widget", Fields: []record.Field[widget]{
				{Name: "1st", Type: record.Text, Get: name.Get, Set: name.Set},
			}},
			wantErr: true,
		},
		{
			name: "reserved identity column",
			desc: record.Descriptor[widget]{Name: "Widget", Fields: []record.Field[widget]{
				{Name: "ID", Type: record.Integer, Get: name.Get, Set: name.Set},
			}},
			wantErr: true,
		},
		{
			name:    "duplicate field",
			desc:    record.Descriptor[widget]{Name: "Widget", Fields: []record.Field[widget]{name, name}},
			wantErr: true,
		},
		{
			name: "missing accessor",
			desc: record.Descriptor[widget]{Name: "Widget", Fields: []record.Field[widget]{
				{Name: "name", Type: record.Text, Get: name.Get},
			}},
			wantErr: true,
		},
		{
			name: "unknown field type",
			desc: record.Descriptor[widget]{Name: "Widget", Fields: []record.Field[widget]{
				{Name: "name", Type: record.FieldType(42), Get: name.Get, Set: name.Set},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDescriptor(tt.desc)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDescriptor)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	seven := int64(7)
	var nilPtr *int64
	ts := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		value   any
		want    any
		name    string
		typ     record.FieldType
		wantErr bool
	}{
		{name: "nil", typ: record.Integer, value: nil, want: nil},
		{name: "int", typ: record.Integer, value: 7, want: int64(7)},
		{name: "int32", typ: record.Integer, value: int32(7), want: int64(7)},
		{name: "int pointer", typ: record.Integer, value: &seven, want: int64(7)},
		{name: "nil int pointer", typ: record.Integer, value: nilPtr, want: nil},
		{name: "float for integer", typ: record.Integer, value: 1.5, wantErr: true},
		{name: "float", typ: record.Real, value: 1.5, want: 1.5},
		{name: "int for real", typ: record.Real, value: 2, want: 2.0},
		{name: "text", typ: record.Text, value: "hi", want: "hi"},
		{name: "int for text", typ: record.Text, value: 1, wantErr: true},
		{name: "time", typ: record.Timestamp, value: ts, want: ts},
		{name: "time string", typ: record.Timestamp, value: "2024-01-02T03:04:05Z", want: ts},
		{name: "bad time string", typ: record.Timestamp, value: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.typ, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeTimestamp(t *testing.T) {
	local := time.Date(2024, time.January, 2, 3, 4, 5, 600, time.FixedZone("X", 3600))
	got := encode(record.Timestamp, local)
	assert.Equal(t, "2024-01-02T02:04:05.0000006Z", got)

	decoded, err := decode(record.Timestamp, &sql.NullString{String: got.(string), Valid: true})
	require.NoError(t, err)
	assert.True(t, local.Equal(decoded.(time.Time)))
}
