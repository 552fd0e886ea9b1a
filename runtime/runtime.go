// Package runtime is the thin support layer generated data-access code
// links against: a connection wrapper with dialect-aware SQL rendering,
// generic query execution helpers and a row iterator. It contains no
// reflection and no schema knowledge; everything schema-specific lives
// in the generated files.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors returned by query helpers.
var (
	// ErrNotFound is returned by single-result lookups matching no row.
	ErrNotFound = errors.New("tdbm: no row found")
	// ErrTooManyRows is returned by single-result lookups matching more
	// than one row.
	ErrTooManyRows = errors.New("tdbm: more than one row found")
)

// Queryer is the database handle the runtime executes against. Both
// *sql.DB and *sql.Tx satisfy it, so generated DAOs run unchanged inside
// transactions.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dialect selects placeholder style, identifier quoting and insert-id
// retrieval for a database engine.
type Dialect int

// Supported dialects.
const (
	MySQL Dialect = iota
	Postgres
	SQLite
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	}
	return "unknown"
}

// DialectFor maps a driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("tdbm: unknown driver %q", driver)
}

// Connection pairs a database handle with its dialect.
type Connection struct {
	DB      Queryer
	Dialect Dialect
}

// NewConnection wraps a database handle.
func NewConnection(db Queryer, d Dialect) *Connection {
	return &Connection{DB: db, Dialect: d}
}

// placeholder renders the n-th (1-based) statement placeholder.
func (c *Connection) placeholder(n int) string {
	if c.Dialect == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// quote renders an identifier with dialect quoting.
func (c *Connection) quote(ident string) string {
	if c.Dialect == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// qualify renders alias.identifier with dialect quoting.
func (c *Connection) qualify(alias, ident string) string {
	var b strings.Builder
	b.WriteString(alias)
	b.WriteString(".")
	b.WriteString(c.quote(ident))
	return b.String()
}
