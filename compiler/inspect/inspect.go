// Package inspect reads the structure of a live database into a schema
// snapshot: tables, columns, indexes and foreign keys, with column types
// normalized across engines. One inspector exists per supported engine;
// all of them work through database/sql, so any registered driver for
// the engine serves.
package inspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// An Inspector extracts a schema snapshot from a database.
type Inspector interface {
	Inspect(ctx context.Context) (*schema.Schema, error)
}

// New returns the inspector matching the given driver name.
func New(driver string, db *sql.DB, opts ...Option) (Inspector, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	switch driver {
	case "postgres", "pgx":
		name := cfg.schemaName
		if name == "" {
			name = "public"
		}
		return &PostgresInspector{db: db, schema: name}, nil
	case "mysql":
		return &MySQLInspector{db: db, schema: cfg.schemaName}, nil
	case "sqlite", "sqlite3":
		return &SQLiteInspector{db: db}, nil
	}
	return nil, fmt.Errorf("inspect: unsupported driver %q", driver)
}

type config struct {
	schemaName string
}

// Option configures inspector construction.
type Option func(*config)

// WithSchemaName sets the database schema to inspect. Postgres defaults
// to "public"; MySQL defaults to the connection's current database.
func WithSchemaName(name string) Option {
	return func(c *config) { c.schemaName = name }
}
