package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Table describes how an entity type maps onto a SQL table. One descriptor
// per entity; the Repository derives every statement from it.
type Table[T any] struct {
	// Name is the table name, PK its primary key column.
	Name string
	PK   string

	// Columns lists the insertable columns in order; Values must return the
	// matching values for an entity.
	Columns []string
	Values  func(*T) []any

	// PKValue returns the entity's primary key value.
	PKValue func(*T) any

	// AutoID marks an integer primary key generated by the database. SetID
	// stores the generated key back onto the entity after insert.
	AutoID bool
	SetID  func(*T, int64)

	// Defaults assigns server-side fields (timestamps, generated tokens)
	// before insert. Optional.
	Defaults func(*T, time.Time)
}

// Fields holds column assignments for Update. Column names are validated
// against the table descriptor before any SQL is built.
type Fields map[string]any

// Repository is a generic CRUD and query engine over one table. Entity
// stores are thin specializations that add named convenience queries; all
// query building lives here.
type Repository[T any] struct {
	db  *sqlx.DB
	d   Dialect
	tbl Table[T]
}

// NewRepository binds a table descriptor to a store.
func NewRepository[T any](s *Store, tbl Table[T]) *Repository[T] {
	return &Repository[T]{db: s.db, d: s.dialect, tbl: tbl}
}

// Get retrieves at most one row. Absence is a normal (nil, nil) result, not
// an error. The row lock variant used inside Update/Delete goes through
// getLocked so read-then-write sequences serialize on dialects with
// FOR UPDATE support.
func (r *Repository[T]) Get(ctx context.Context, opts ...Option) (*T, error) {
	return r.get(ctx, r.db, false, opts)
}

func (r *Repository[T]) getLocked(ctx context.Context, tx *sqlx.Tx, opts ...Option) (*T, error) {
	return r.get(ctx, tx, true, opts)
}

func (r *Repository[T]) get(ctx context.Context, q sqlx.QueryerContext, forUpdate bool, opts []Option) (*T, error) {
	o := collectOpts(opts)
	query, args, err := buildSelect(r.d, r.tbl.Name, r.tbl.PK, o, forUpdate, true, "")
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", r.tbl.Name, err)
	}

	var entity T
	if err := sqlx.GetContext(ctx, q, &entity, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.tbl.Name, err)
	}
	return &entity, nil
}

// GetAll retrieves a page of rows (default limit 10) ordered and filtered by
// the given options. Unlocked read.
func (r *Repository[T]) GetAll(ctx context.Context, opts ...Option) ([]T, error) {
	o := collectOpts(opts)
	query, args, err := buildSelect(r.d, r.tbl.Name, r.tbl.PK, o, false, false, "")
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", r.tbl.Name, err)
	}

	var entities []T
	if err := r.db.SelectContext(ctx, &entities, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tbl.Name, err)
	}
	return entities, nil
}

// Create inserts an entity and refreshes generated fields (key, timestamps)
// from the stored row.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if r.tbl.Defaults != nil {
		r.tbl.Defaults(entity, time.Now().UTC())
	}

	query, args := r.buildInsert(entity)

	if r.tbl.AutoID {
		if r.d.UseReturning {
			var id int64
			if err := r.db.QueryRowxContext(ctx, query+" RETURNING "+r.d.Quote(r.tbl.PK), args...).Scan(&id); err != nil {
				return fmt.Errorf("insert %s: %w", r.tbl.Name, err)
			}
			r.tbl.SetID(entity, id)
		} else {
			res, err := r.db.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("insert %s: %w", r.tbl.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("get %s id: %w", r.tbl.Name, err)
			}
			r.tbl.SetID(entity, id)
		}
	} else if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tbl.Name, err)
	}

	fresh, err := r.Get(ctx, ByPK(r.tbl.PKValue(entity)))
	if err != nil {
		return fmt.Errorf("refresh %s after insert: %w", r.tbl.Name, err)
	}
	if fresh != nil {
		*entity = *fresh
	}
	return nil
}

// BulkCreate inserts entities in one transaction. No per-entity feedback;
// generated keys are not read back.
func (r *Repository[T]) BulkCreate(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, entity := range entities {
		if r.tbl.Defaults != nil {
			r.tbl.Defaults(entity, now)
		}
		query, args := r.buildInsert(entity)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("bulk insert %s: %w", r.tbl.Name, err)
		}
	}
	return tx.Commit()
}

// Update locks the target row, applies the field assignments, and returns
// the refreshed entity. A missing row is ErrNotFound: update is a write-path
// operation and absence of its target is an error, unlike reads.
func (r *Repository[T]) Update(ctx context.Context, pk any, fields Fields) (*T, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("update %s: no fields given", r.tbl.Name)
	}

	cols, vals, err := r.orderedAssignments(fields)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.tbl.Name, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := r.getLocked(ctx, tx, ByPK(pk))
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%s with pk %v: %w", r.tbl.Name, pk, ErrNotFound)
	}

	sets := make([]string, len(cols))
	next := 1
	for i, c := range cols {
		sets[i] = r.d.Quote(c) + " = " + r.d.Placeholder(next)
		next++
	}
	query := "UPDATE " + r.d.Quote(r.tbl.Name) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + r.d.Quote(r.tbl.PK) + " = " + r.d.Placeholder(next)
	args := append(vals, pk)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update %s: %w", r.tbl.Name, err)
	}

	updated, err := r.get(ctx, tx, false, []Option{ByPK(pk)})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update %s: %w", r.tbl.Name, err)
	}
	return updated, nil
}

// Delete locks and removes the target row, returning the detached snapshot.
// A missing row is ErrNotFound.
func (r *Repository[T]) Delete(ctx context.Context, pk any) (*T, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := r.getLocked(ctx, tx, ByPK(pk))
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%s with pk %v: %w", r.tbl.Name, pk, ErrNotFound)
	}

	query := "DELETE FROM " + r.d.Quote(r.tbl.Name) + " WHERE " + r.d.Quote(r.tbl.PK) + " = " + r.d.Placeholder(1)
	if _, err := tx.ExecContext(ctx, query, pk); err != nil {
		return nil, fmt.Errorf("delete %s: %w", r.tbl.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete %s: %w", r.tbl.Name, err)
	}
	return current, nil
}

// Count returns the number of rows matching the filters and joins. Limit and
// offset options are ignored.
func (r *Repository[T]) Count(ctx context.Context, opts ...Option) (int64, error) {
	o := collectOpts(opts)
	o.limit = 0
	o.offset = 0
	o.orders = nil
	o.columns = nil

	query, args, err := buildSelect(r.d, r.tbl.Name, r.tbl.PK, o, false, false, "COUNT(*)")
	if err != nil {
		return 0, fmt.Errorf("build query for %s: %w", r.tbl.Name, err)
	}

	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tbl.Name, err)
	}
	return n, nil
}

// buildInsert assembles the INSERT statement and its bind values.
func (r *Repository[T]) buildInsert(entity *T) (string, []any) {
	cols := make([]string, len(r.tbl.Columns))
	marks := make([]string, len(r.tbl.Columns))
	for i, c := range r.tbl.Columns {
		cols[i] = r.d.Quote(c)
		marks[i] = r.d.Placeholder(i + 1)
	}
	query := "INSERT INTO " + r.d.Quote(r.tbl.Name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	return query, r.tbl.Values(entity)
}

// orderedAssignments validates field names against the table descriptor and
// returns them in the descriptor's column order for deterministic SQL.
func (r *Repository[T]) orderedAssignments(fields Fields) ([]string, []any, error) {
	allowed := make(map[string]bool, len(r.tbl.Columns))
	for _, c := range r.tbl.Columns {
		allowed[c] = true
	}
	for name := range fields {
		if err := validateIdentifier(name); err != nil {
			return nil, nil, err
		}
		if !allowed[name] {
			return nil, nil, fmt.Errorf("column %q is not assignable on %s", name, r.tbl.Name)
		}
	}

	var cols []string
	var vals []any
	for _, c := range r.tbl.Columns {
		if v, ok := fields[c]; ok {
			cols = append(cols, c)
			vals = append(vals, v)
		}
	}
	return cols, vals, nil
}
