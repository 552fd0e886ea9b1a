package runtime

import (
	"context"
	"strings"
)

// Insert inserts one row. When returning names an auto-generated key
// column, the new key is fetched the dialect's way (RETURNING on
// Postgres, last-insert-id elsewhere) and returned; otherwise the
// returned id is zero.
func Insert(ctx context.Context, c *Connection, table string, columns []string, values []any, returning string) (int64, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(c.quote(table))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.quote(col))
	}
	b.WriteString(") VALUES (")
	for i := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.placeholder(i + 1))
	}
	b.WriteString(")")
	if returning != "" && c.Dialect == Postgres {
		b.WriteString(" RETURNING ")
		b.WriteString(c.quote(returning))
		var id int64
		if err := c.DB.QueryRowContext(ctx, b.String(), values...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := c.DB.ExecContext(ctx, b.String(), values...)
	if err != nil {
		return 0, err
	}
	if returning == "" {
		return 0, nil
	}
	return res.LastInsertId()
}

// Update updates one row identified by its key columns.
func Update(ctx context.Context, c *Connection, table string, columns []string, values []any, keyColumns []string, keyValues []any) error {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(c.quote(table))
	b.WriteString(" SET ")
	n := 0
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.quote(col))
		b.WriteString(" = ")
		n++
		b.WriteString(c.placeholder(n))
	}
	b.WriteString(" WHERE ")
	for i, col := range keyColumns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.quote(col))
		b.WriteString(" = ")
		n++
		b.WriteString(c.placeholder(n))
	}
	args := make([]any, 0, len(values)+len(keyValues))
	args = append(args, values...)
	args = append(args, keyValues...)
	_, err := c.DB.ExecContext(ctx, b.String(), args...)
	return err
}

// Delete deletes the rows identified by the key columns.
func Delete(ctx context.Context, c *Connection, table string, keyColumns []string, keyValues []any) error {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(c.quote(table))
	b.WriteString(" WHERE ")
	for i, col := range keyColumns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.quote(col))
		b.WriteString(" = ")
		b.WriteString(c.placeholder(i + 1))
	}
	_, err := c.DB.ExecContext(ctx, b.String(), keyValues...)
	return err
}

// SetNull clears the given columns on every row matching the filter
// columns. Generated delete-cleanup code uses it to detach rows that
// reference a bean about to be deleted.
func SetNull(ctx context.Context, c *Connection, table string, columns []string, filterColumns []string, filterValues []any) error {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(c.quote(table))
	b.WriteString(" SET ")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.quote(col))
		b.WriteString(" = NULL")
	}
	b.WriteString(" WHERE ")
	for i, col := range filterColumns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.quote(col))
		b.WriteString(" = ")
		b.WriteString(c.placeholder(i + 1))
	}
	_, err := c.DB.ExecContext(ctx, b.String(), filterValues...)
	return err
}
