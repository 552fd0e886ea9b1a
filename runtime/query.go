package runtime

import (
	"context"
	"database/sql"
	"strings"
)

type (
	// Query is a declarative SELECT over one table, optionally joined
	// through a junction table. Generated DAOs build queries; the
	// runtime renders and executes them.
	Query struct {
		// Table is the base table.
		Table string
		// Columns are the selected columns of the base table.
		Columns []string
		// Filters are ANDed equality conditions.
		Filters []Filter
		// Join optionally crosses a junction table.
		Join *Join
		// OrderBy optionally names a raw ORDER BY expression.
		OrderBy string
	}

	// Filter is one equality condition. A filter with Joined set
	// applies to the joined junction table instead of the base table.
	Filter struct {
		Column string
		Value  any
		Joined bool
	}

	// Join crosses a junction table: each pair equates a junction
	// column with a base-table column.
	Join struct {
		Table string
		On    []ColumnPair
	}

	// ColumnPair equates Joined (on the junction table) with Base (on
	// the base table).
	ColumnPair struct {
		Joined string
		Base   string
	}
)

// Where appends an equality filter on the base table.
func (q Query) Where(column string, value any) Query {
	q.Filters = append(q.Filters, Filter{Column: column, Value: value})
	return q
}

// WhereJoined appends an equality filter on the joined table.
func (q Query) WhereJoined(column string, value any) Query {
	q.Filters = append(q.Filters, Filter{Column: column, Value: value, Joined: true})
	return q
}

const (
	baseAlias = "t"
	joinAlias = "j"
)

// render builds the SELECT statement and its argument list.
func (q Query) render(c *Connection) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range q.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.qualify(baseAlias, col))
	}
	b.WriteString(" FROM ")
	b.WriteString(c.quote(q.Table))
	b.WriteString(" ")
	b.WriteString(baseAlias)
	if q.Join != nil {
		b.WriteString(" JOIN ")
		b.WriteString(c.quote(q.Join.Table))
		b.WriteString(" ")
		b.WriteString(joinAlias)
		b.WriteString(" ON ")
		for i, on := range q.Join.On {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(c.qualify(joinAlias, on.Joined))
			b.WriteString(" = ")
			b.WriteString(c.qualify(baseAlias, on.Base))
		}
	}
	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		alias := baseAlias
		if f.Joined {
			alias = joinAlias
		}
		b.WriteString(c.qualify(alias, f.Column))
		b.WriteString(" = ")
		b.WriteString(c.placeholder(len(args) + 1))
		args = append(args, f.Value)
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}
	return b.String(), args
}

// One executes the query and scans exactly one row. It returns
// ErrNotFound on zero rows and ErrTooManyRows past the first.
func One[T any](ctx context.Context, c *Connection, q Query, scan func(*sql.Rows) (T, error)) (T, error) {
	var zero T
	stmt, args := q.render(c)
	rows, err := c.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, ErrNotFound
	}
	v, err := scan(rows)
	if err != nil {
		return zero, err
	}
	if rows.Next() {
		return zero, ErrTooManyRows
	}
	return v, rows.Err()
}

// Many executes the query and scans all rows into a slice.
func Many[T any](ctx context.Context, c *Connection, q Query, scan func(*sql.Rows) (T, error)) ([]T, error) {
	stmt, args := q.render(c)
	rows, err := c.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Iter executes the query and returns a lazy iterator over its rows.
// The caller owns the iterator and must Close it.
func Iter[T any](ctx context.Context, c *Connection, q Query, scan func(*sql.Rows) (T, error)) (*Iterator[T], error) {
	stmt, args := q.render(c)
	rows, err := c.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return &Iterator[T]{rows: rows, scan: scan}, nil
}

// Iterator walks a result set row by row without materializing it.
type Iterator[T any] struct {
	rows *sql.Rows
	scan func(*sql.Rows) (T, error)
	cur  T
	err  error
}

// Next advances to the next row. It returns false at the end of the set
// or on the first error; check Err after the loop.
func (it *Iterator[T]) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	it.cur, it.err = it.scan(it.rows)
	return it.err == nil
}

// Item returns the row the last successful Next produced.
func (it *Iterator[T]) Item() T { return it.cur }

// Err returns the first error hit while iterating.
func (it *Iterator[T]) Err() error { return it.err }

// Close releases the underlying result set.
func (it *Iterator[T]) Close() error { return it.rows.Close() }

// All drains the iterator into a slice and closes it.
func (it *Iterator[T]) All() ([]T, error) {
	defer it.rows.Close()
	var out []T
	for it.Next() {
		out = append(out, it.Item())
	}
	return out, it.Err()
}
