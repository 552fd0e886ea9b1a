// Package schema holds the structural facts of a relational database
// schema: tables, columns, indexes and foreign-key constraints. The facts
// are supplied by the introspection layer (compiler/inspect) and are
// read-only to the resolution engine (compiler/gen).
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// A Type is the scalar type of a column, normalized across dialects.
type Type int

// Column scalar types.
const (
	TypeInvalid Type = iota
	TypeString
	TypeBytes
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat64
	TypeTime
	TypeUUID
	TypeJSON
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeString:  "string",
	TypeBytes:   "bytes",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeJSON:    "json",
}

// String returns the type name.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[TypeInvalid]
	}
	return typeNames[t]
}

// Valid reports if the type is a known scalar type.
func (t Type) Valid() bool { return t > TypeInvalid && int(t) < len(typeNames) }

type (
	// Column represents a table column. It belongs to exactly one table.
	Column struct {
		Name string
		// Type is the normalized scalar type of the column.
		Type Type
		// RawType preserves the dialect type string (e.g. "varchar(255)").
		RawType string
		// Nullable indicates that the column accepts NULL.
		Nullable bool
		// HasDefault indicates that the column carries a default expression.
		HasDefault bool
		// Default holds the raw default expression if HasDefault is set.
		Default string
		// AutoIncrement indicates a database-generated value
		// (serial, auto_increment, identity).
		AutoIncrement bool
	}

	// ForeignKey represents a foreign-key constraint. It may span multiple
	// columns; Columns and RefColumns always have the same length and the
	// same order.
	ForeignKey struct {
		Name       string
		Columns    []string
		RefTable   string
		RefColumns []string
	}

	// Index represents a table index. The primary key is modeled as an
	// index with Primary set.
	Index struct {
		Name    string
		Columns []string
		Unique  bool
		Primary bool
	}

	// Table represents a database table with its columns, indexes and
	// foreign keys, all in schema-declaration order.
	Table struct {
		Name        string
		Columns     []*Column
		Indexes     []*Index
		ForeignKeys []*ForeignKey

		columns map[string]*Column
	}

	// Schema is an immutable snapshot of a database schema.
	Schema struct {
		// Name is the database (or schema) name the snapshot was taken from.
		Name   string
		Tables []*Table

		tables map[string]*Table
	}
)

// New creates a schema snapshot from the given tables. Table order is
// preserved as given (schema-declaration order).
func New(name string, tables ...*Table) *Schema {
	s := &Schema{Name: name, Tables: tables, tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.tables[t.Name] = t
	}
	return s
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	if s.tables == nil {
		s.tables = make(map[string]*Table, len(s.Tables))
		for _, t := range s.Tables {
			s.tables[t.Name] = t
		}
	}
	t, ok := s.tables[name]
	return t, ok
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	if t.columns == nil {
		t.columns = make(map[string]*Column, len(t.Columns))
		for _, c := range t.Columns {
			t.columns[c.Name] = c
		}
	}
	c, ok := t.columns[name]
	return c, ok
}

// PrimaryKey returns the primary-key index of the table, or nil if the
// table has none.
func (t *Table) PrimaryKey() *Index {
	for _, idx := range t.Indexes {
		if idx.Primary {
			return idx
		}
	}
	return nil
}

// HasPrimaryKey reports if the table declares a primary key.
func (t *Table) HasPrimaryKey() bool { return t.PrimaryKey() != nil }

// ForeignKeyFor returns the foreign key the given column takes part in,
// or nil if the column is not covered by any constraint. A column of a
// composite constraint resolves to that single constraint.
func (t *Table) ForeignKeyFor(column string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if c == column {
				return fk
			}
		}
	}
	return nil
}

// DedupedIndexes returns the table indexes with duplicates removed: two
// indexes covering the identical column set count as one, and the first
// declared wins. The primary-key index is excluded.
func (t *Table) DedupedIndexes() []*Index {
	seen := make(map[string]bool, len(t.Indexes))
	out := make([]*Index, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		if idx.Primary {
			continue
		}
		key := columnSetKey(idx.Columns)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, idx)
	}
	return out
}

// CoversColumns reports if the foreign key spans exactly the given column
// set, regardless of order.
func (fk *ForeignKey) CoversColumns(columns []string) bool {
	if len(fk.Columns) != len(columns) {
		return false
	}
	return columnSetKey(fk.Columns) == columnSetKey(columns)
}

// HasColumn reports if the given column takes part in the constraint.
func (fk *ForeignKey) HasColumn(column string) bool {
	for _, c := range fk.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// RefColumn returns the referenced column paired with the given local
// column.
func (fk *ForeignKey) RefColumn(local string) (string, error) {
	for i, c := range fk.Columns {
		if c == local {
			return fk.RefColumns[i], nil
		}
	}
	return "", fmt.Errorf("schema: column %q is not part of constraint %q", local, fk.Name)
}

// columnSetKey returns an order-insensitive key for a column set.
func columnSetKey(columns []string) string {
	cs := make([]string, len(columns))
	copy(cs, columns)
	sort.Strings(cs)
	return strings.Join(cs, "\x00")
}
