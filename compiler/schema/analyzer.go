package schema

// An IncomingForeignKey pairs a foreign key with the table that declares
// it, seen from the referenced table's point of view.
type IncomingForeignKey struct {
	// Table is the table holding the constraint (the "many" side).
	Table *Table
	// ForeignKey is the constraint pointing at the analyzed table.
	ForeignKey *ForeignKey
}

// Analyzer answers the structural questions the resolution engine asks
// about a schema: which tables are junction tables, which foreign key (if
// any) links a table to its parent, and which foreign keys point at a
// given table. All answers are computed once at construction time; the
// analyzer never re-queries the snapshot.
type Analyzer struct {
	schema   *Schema
	junction map[string]bool
	parents  map[string]*ForeignKey
	incoming map[string][]IncomingForeignKey
}

// NewAnalyzer analyzes the given schema snapshot.
func NewAnalyzer(s *Schema) *Analyzer {
	a := &Analyzer{
		schema:   s,
		junction: make(map[string]bool, len(s.Tables)),
		parents:  make(map[string]*ForeignKey, len(s.Tables)),
		incoming: make(map[string][]IncomingForeignKey, len(s.Tables)),
	}
	for _, t := range s.Tables {
		if junctionTable(t) {
			a.junction[t.Name] = true
		}
	}
	for _, t := range s.Tables {
		if fk := parentRelationship(t); fk != nil {
			a.parents[t.Name] = fk
		}
	}
	for _, t := range s.Tables {
		if a.junction[t.Name] {
			// Junction tables navigate through PivotTableMethod
			// descriptors, never through direct incoming keys.
			continue
		}
		for _, fk := range t.ForeignKeys {
			if a.parents[t.Name] == fk {
				// The inheritance link is not a navigable relationship.
				continue
			}
			a.incoming[fk.RefTable] = append(a.incoming[fk.RefTable], IncomingForeignKey{Table: t, ForeignKey: fk})
		}
	}
	return a
}

// Schema returns the analyzed snapshot.
func (a *Analyzer) Schema() *Schema { return a.schema }

// Tables returns all tables in schema-declaration order.
func (a *Analyzer) Tables() []*Table { return a.schema.Tables }

// IsJunctionTable reports if the named table is a pure two-constraint
// association table: exactly two foreign keys, and every column either
// takes part in one of them or is an auto-generated primary-key column.
func (a *Analyzer) IsJunctionTable(name string) bool { return a.junction[name] }

// JunctionTables returns all junction tables in schema-declaration order.
func (a *Analyzer) JunctionTables() []*Table {
	var out []*Table
	for _, t := range a.schema.Tables {
		if a.junction[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// ParentRelationship returns the foreign key linking the named table to
// its parent table, or nil when the table takes part in no inheritance
// relationship. A table has a parent when exactly one of its foreign keys
// spans exactly its primary-key columns: such a constraint makes the row
// a one-to-one extension of the referenced row.
func (a *Analyzer) ParentRelationship(name string) *ForeignKey { return a.parents[name] }

// IncomingForeignKeys returns the foreign keys elsewhere in the schema
// that reference the named table. Constraints declared by junction tables
// and inheritance links are excluded; the former surface as many-to-many
// navigation and the latter as an extends relationship.
func (a *Analyzer) IncomingForeignKeys(name string) []IncomingForeignKey { return a.incoming[name] }

func junctionTable(t *Table) bool {
	if len(t.ForeignKeys) != 2 {
		return false
	}
	for _, c := range t.Columns {
		if t.ForeignKeyFor(c.Name) != nil {
			continue
		}
		// A technical auto-generated key does not disqualify the table.
		if c.AutoIncrement {
			if pk := t.PrimaryKey(); pk != nil && len(pk.Columns) == 1 && pk.Columns[0] == c.Name {
				continue
			}
		}
		return false
	}
	return true
}

func parentRelationship(t *Table) *ForeignKey {
	pk := t.PrimaryKey()
	if pk == nil {
		return nil
	}
	var found *ForeignKey
	for _, fk := range t.ForeignKeys {
		if !fk.CoversColumns(pk.Columns) {
			continue
		}
		if found != nil {
			// Two candidate links make the inheritance ambiguous;
			// treat the table as a plain table.
			return nil
		}
		found = fk
	}
	return found
}
