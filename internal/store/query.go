package store

import (
	"fmt"
	"strings"
)

// Predicate is a typed filter condition. Values always bind through
// placeholders; column references are validated before interpolation.
type Predicate struct {
	column string
	op     string
	values []any
}

// Eq filters column = value.
func Eq(column string, value any) Predicate {
	return Predicate{column: column, op: "=", values: []any{value}}
}

// Ne filters column != value.
func Ne(column string, value any) Predicate {
	return Predicate{column: column, op: "!=", values: []any{value}}
}

// Gt filters column > value.
func Gt(column string, value any) Predicate {
	return Predicate{column: column, op: ">", values: []any{value}}
}

// Ge filters column >= value.
func Ge(column string, value any) Predicate {
	return Predicate{column: column, op: ">=", values: []any{value}}
}

// Lt filters column < value.
func Lt(column string, value any) Predicate {
	return Predicate{column: column, op: "<", values: []any{value}}
}

// Le filters column <= value.
func Le(column string, value any) Predicate {
	return Predicate{column: column, op: "<=", values: []any{value}}
}

// Like filters column LIKE pattern.
func Like(column, pattern string) Predicate {
	return Predicate{column: column, op: "LIKE", values: []any{pattern}}
}

// In filters column IN (values...).
func In(column string, values ...any) Predicate {
	return Predicate{column: column, op: "IN", values: values}
}

// sql renders the predicate fragment, appending bind values to args.
// nextIndex is the 1-based placeholder index for the first bound value.
func (p Predicate) sql(d Dialect, nextIndex int) (string, []any, int, error) {
	if err := validateColumnRef(p.column); err != nil {
		return "", nil, nextIndex, err
	}
	col := quoteColumnRef(d, p.column)

	if p.op == "IN" {
		if len(p.values) == 0 {
			return "", nil, nextIndex, fmt.Errorf("IN predicate on %q requires at least one value", p.column)
		}
		marks := make([]string, len(p.values))
		for i := range p.values {
			marks[i] = d.Placeholder(nextIndex)
			nextIndex++
		}
		return col + " IN (" + strings.Join(marks, ", ") + ")", p.values, nextIndex, nil
	}

	mark := d.Placeholder(nextIndex)
	return col + " " + p.op + " " + mark, p.values, nextIndex + 1, nil
}

// Join expresses an inner or outer join as a typed equality condition
// between two column references.
type Join struct {
	Table string
	Left  string // column reference on the left side of the ON clause
	Right string // column reference on the right side
}

func (j Join) sql(d Dialect, keyword string) (string, error) {
	if err := validateIdentifier(j.Table); err != nil {
		return "", fmt.Errorf("join table: %w", err)
	}
	if err := validateColumnRef(j.Left); err != nil {
		return "", err
	}
	if err := validateColumnRef(j.Right); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s ON %s = %s",
		keyword, d.Quote(j.Table), quoteColumnRef(d, j.Left), quoteColumnRef(d, j.Right)), nil
}

// Order is a single ordering directive.
type Order struct {
	Column string
	Desc   bool
}

func (o Order) sql(d Dialect) (string, error) {
	if err := validateColumnRef(o.Column); err != nil {
		return "", fmt.Errorf("order column: %w", err)
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return quoteColumnRef(d, o.Column) + " " + dir, nil
}

// DefaultLimit is the page size applied when GetAll is called without an
// explicit limit.
const DefaultLimit = 10

// queryOpts accumulates the composable parts of a SELECT.
type queryOpts struct {
	pk        any
	hasPK     bool
	preds     []Predicate
	joins     []Join
	leftJoins []Join
	orders    []Order
	columns   []string
	limit     int
	offset    int
}

// Option configures a repository query.
type Option func(*queryOpts)

// ByPK adds an equality filter on the table's primary key.
func ByPK(pk any) Option {
	return func(o *queryOpts) { o.pk = pk; o.hasPK = true }
}

// Where adds filter predicates, combined with AND.
func Where(preds ...Predicate) Option {
	return func(o *queryOpts) { o.preds = append(o.preds, preds...) }
}

// WithJoin adds an inner join.
func WithJoin(joins ...Join) Option {
	return func(o *queryOpts) { o.joins = append(o.joins, joins...) }
}

// WithLeftJoin adds a left outer join.
func WithLeftJoin(joins ...Join) Option {
	return func(o *queryOpts) { o.leftJoins = append(o.leftJoins, joins...) }
}

// OrderBy adds ordering directives.
func OrderBy(orders ...Order) Option {
	return func(o *queryOpts) { o.orders = append(o.orders, orders...) }
}

// Columns restricts the selected columns (all columns by default).
func Columns(cols ...string) Option {
	return func(o *queryOpts) { o.columns = append(o.columns, cols...) }
}

// Limit sets the page size for GetAll.
func Limit(n int) Option {
	return func(o *queryOpts) { o.limit = n }
}

// Offset sets the page offset for GetAll.
func Offset(n int) Option {
	return func(o *queryOpts) { o.offset = n }
}

func collectOpts(opts []Option) queryOpts {
	o := queryOpts{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// buildSelect assembles a SELECT statement for table from the accumulated
// options. pkColumn names the primary key for ByPK; forUpdate appends the
// dialect's row lock clause when supported. single suppresses pagination
// and caps the result at one row.
// projection overrides the column list when non-empty (used by Count).
func buildSelect(d Dialect, table, pkColumn string, o queryOpts, forUpdate, single bool, projection string) (string, []any, error) {
	// Qualify the default projection so joined tables never leak columns
	// into entity scans.
	cols := d.Quote(table) + ".*"
	if projection != "" {
		cols = projection
	} else if len(o.columns) > 0 {
		quoted := make([]string, len(o.columns))
		for i, c := range o.columns {
			if err := validateColumnRef(c); err != nil {
				return "", nil, err
			}
			quoted[i] = quoteColumnRef(d, c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + cols + " FROM " + d.Quote(table))

	for _, j := range o.joins {
		frag, err := j.sql(d, "JOIN")
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" " + frag)
	}
	for _, j := range o.leftJoins {
		frag, err := j.sql(d, "LEFT JOIN")
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" " + frag)
	}

	preds := o.preds
	if o.hasPK {
		preds = append([]Predicate{Eq(table+"."+pkColumn, o.pk)}, preds...)
	}

	var args []any
	if len(preds) > 0 {
		frags := make([]string, 0, len(preds))
		next := 1
		for _, p := range preds {
			frag, vals, n, err := p.sql(d, next)
			if err != nil {
				return "", nil, err
			}
			frags = append(frags, frag)
			args = append(args, vals...)
			next = n
		}
		sb.WriteString(" WHERE " + strings.Join(frags, " AND "))
	}

	if len(o.orders) > 0 {
		frags := make([]string, len(o.orders))
		for i, ord := range o.orders {
			frag, err := ord.sql(d)
			if err != nil {
				return "", nil, err
			}
			frags[i] = frag
		}
		sb.WriteString(" ORDER BY " + strings.Join(frags, ", "))
	}

	if single {
		sb.WriteString(" LIMIT 1")
	} else if o.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", o.limit)
		if o.offset > 0 {
			fmt.Fprintf(&sb, " OFFSET %d", o.offset)
		}
	}

	if forUpdate && d.SupportsForUpdate {
		sb.WriteString(" FOR UPDATE")
	}

	return sb.String(), args, nil
}
