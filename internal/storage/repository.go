package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/record"
	"github.com/Veraticus/bookkeeper/internal/service"
)

// Repository persists one record type in its own SQLite table.
//
// The table layout is derived from the record's descriptor: an
// auto-incrementing id column followed by one column per field, in
// declaration order. The field list is captured once in Open and every
// statement is built from it, so writes and reads agree on column order.
type Repository[T any, P record.Model[T]] struct {
	store       *Store
	table       string
	fields      []record.Field[T]
	columns     string
	insertQuery string
	updateQuery string
}

// Open binds a repository to the store and creates its table if missing.
func Open[T any, P record.Model[T]](ctx context.Context, store *Store, desc record.Descriptor[T]) (*Repository[T, P], error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParameter)
	}
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}

	fields := make([]record.Field[T], len(desc.Fields))
	copy(fields, desc.Fields)

	r := &Repository[T, P]{
		store:  store,
		table:  strings.ToLower(desc.Name),
		fields: fields,
	}
	r.buildQueries()

	if err := store.withTx(ctx, r.createTable); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	store.register(r.table)

	slog.Debug("opened repository", "table", r.table, "fields", len(r.fields))
	return r, nil
}

// Table returns the name of the backing table.
func (r *Repository[T, P]) Table() string {
	return r.table
}

func (r *Repository[T, P]) buildQueries() {
	cols := make([]string, 0, len(r.fields)+1)
	cols = append(cols, quoteIdent(identityColumn))
	names := make([]string, len(r.fields))
	marks := make([]string, len(r.fields))
	sets := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = quoteIdent(f.Name)
		marks[i] = "?"
		sets[i] = quoteIdent(f.Name) + " = ?"
	}
	cols = append(cols, names...)
	r.columns = strings.Join(cols, ", ")

	if len(r.fields) == 0 {
		r.insertQuery = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(r.table))
	} else {
		r.insertQuery = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(r.table), strings.Join(names, ", "), strings.Join(marks, ", "))
		r.updateQuery = fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			quoteIdent(r.table), strings.Join(sets, ", "), quoteIdent(identityColumn))
	}
}

func (r *Repository[T, P]) createTable(tx *sql.Tx) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY AUTOINCREMENT",
		quoteIdent(r.table), quoteIdent(identityColumn))
	for _, f := range r.fields {
		fmt.Fprintf(&b, ", %s %s", quoteIdent(f.Name), columnType(f.Type))
	}
	b.WriteString(")")

	_, err := tx.Exec(b.String())
	return err
}

// Reset drops the table and creates it again, discarding every row and
// restarting identities.
func (r *Repository[T, P]) Reset(ctx context.Context) error {
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(r.table)); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
		return r.createTable(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to reset %s: %w", r.table, err)
	}

	slog.Info("reset table", "table", r.table)
	return nil
}

// Add inserts rec and writes the assigned identity back into it.
func (r *Repository[T, P]) Add(ctx context.Context, rec *T) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("%w: %w: record", common.ErrInvalidArgument, ErrNilParameter)
	}
	p := P(rec)
	if p.Identity() != 0 {
		return 0, fmt.Errorf("%w: %s already has identity %d", common.ErrInvalidArgument, r.table, p.Identity())
	}

	args := r.values(rec)
	var id int64
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, r.insertQuery, args...)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", r.table, err)
		}
		id, err = result.LastInsertId()
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: no assignable identity for %s", common.ErrInvalidArgument, r.table)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.SetIdentity(id)
	slog.Debug("added record", "table", r.table, "id", id)
	return id, nil
}

// Get returns the record with the given identity, or nil if there is none.
func (r *Repository[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", r.columns, quoteIdent(r.table), quoteIdent(identityColumn))

	var rec *T
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		rec, err = r.scan(tx.QueryRowContext(ctx, query, id))
		if errors.Is(err, sql.ErrNoRows) {
			rec = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", r.table, id, err)
	}
	return rec, nil
}

// GetAll returns every record matching filter in insertion order.
func (r *Repository[T, P]) GetAll(ctx context.Context, filter service.Filter) ([]*T, error) {
	terms, err := validateFilter(descriptorOf(r.table, r.fields), filter)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", r.columns, quoteIdent(r.table))
	args := make([]any, 0, len(terms))
	for i, term := range terms {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if term.value == nil {
			fmt.Fprintf(&b, "%s IS NULL", quoteIdent(term.column))
			continue
		}
		fmt.Fprintf(&b, "%s = ?", quoteIdent(term.column))
		args = append(args, term.value)
	}
	fmt.Fprintf(&b, " ORDER BY %s", quoteIdent(identityColumn))

	var records []*T
	err = r.store.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, b.String(), args...)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", r.table, err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := r.scan(rows)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating %s: %w", r.table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved records", "table", r.table, "count", len(records), "filter", len(terms))
	return records, nil
}

// Update overwrites every stored field of the row with rec's identity.
func (r *Repository[T, P]) Update(ctx context.Context, rec *T) error {
	if rec == nil {
		return fmt.Errorf("%w: %w: record", common.ErrInvalidArgument, ErrNilParameter)
	}
	id := P(rec).Identity()
	args := append(r.values(rec), id)

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		found, err := r.exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: no object with id=%d in %s", common.ErrInvalidArgument, id, r.table)
		}
		if r.updateQuery == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, r.updateQuery, args...); err != nil {
			return fmt.Errorf("failed to update %s %d: %w", r.table, id, err)
		}
		slog.Debug("updated record", "table", r.table, "id", id)
		return nil
	})
}

// Delete removes the row with the given identity.
func (r *Repository[T, P]) Delete(ctx context.Context, id int64) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		found, err := r.exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: no object with id=%d in %s", common.ErrNotFound, id, r.table)
		}
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(r.table), quoteIdent(identityColumn))
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to delete %s %d: %w", r.table, id, err)
		}
		slog.Debug("deleted record", "table", r.table, "id", id)
		return nil
	})
}

// DeleteAll removes every row. Identities keep counting up.
func (r *Repository[T, P]) DeleteAll(ctx context.Context) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(r.table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", r.table, err)
		}
		return nil
	})
}

// Count returns the number of stored rows.
func (r *Repository[T, P]) Count(ctx context.Context) (int, error) {
	var count int
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(r.table)).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return count, nil
}

func (r *Repository[T, P]) exists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", quoteIdent(r.table), quoteIdent(identityColumn))
	var one int
	err := tx.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %d: %w", r.table, id, err)
	}
	return true, nil
}

// values returns the stored fields of rec in declaration order.
func (r *Repository[T, P]) values(rec *T) []any {
	args := make([]any, len(r.fields), len(r.fields)+1)
	for i, f := range r.fields {
		args[i] = encode(f.Type, f.Get(rec))
	}
	return args
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scan builds a fresh record from a row laid out as r.columns.
func (r *Repository[T, P]) scan(row rowScanner) (*T, error) {
	var id int64
	targets := make([]any, len(r.fields)+1)
	targets[0] = &id
	for i, f := range r.fields {
		targets[i+1] = scanTarget(f.Type)
	}

	if err := row.Scan(targets...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan %s: %w", r.table, err)
	}

	rec := new(T)
	P(rec).SetIdentity(id)
	for i, f := range r.fields {
		v, err := decode(f.Type, targets[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", r.table, f.Name, err)
		}
		f.Set(rec, v)
	}
	return rec, nil
}

func descriptorOf[T any](name string, fields []record.Field[T]) record.Descriptor[T] {
	return record.Descriptor[T]{Name: name, Fields: fields}
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
