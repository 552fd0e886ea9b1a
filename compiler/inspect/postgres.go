package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// PostgresInspector extracts a schema snapshot from PostgreSQL through
// information_schema and pg_catalog.
type PostgresInspector struct {
	db     *sql.DB
	schema string
}

// Inspect implements Inspector.
func (p *PostgresInspector) Inspect(ctx context.Context) (*schema.Schema, error) {
	names, err := p.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect: listing tables: %w", err)
	}
	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := p.inspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspect: table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return schema.New(p.schema, tables...), nil
}

func (p *PostgresInspector) tableNames(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	rows, err := p.db.QueryContext(ctx, query, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *PostgresInspector) inspectTable(ctx context.Context, name string) (*schema.Table, error) {
	t := &schema.Table{Name: name}
	if err := p.columns(ctx, t); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if err := p.indexes(ctx, t); err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	if err := p.foreignKeys(ctx, t); err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	return t, nil
}

func (p *PostgresInspector) columns(ctx context.Context, t *schema.Table) error {
	const query = `
		SELECT c.column_name, c.data_type, c.udt_name, c.is_nullable, c.column_default, c.is_identity
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`
	rows, err := p.db.QueryContext(ctx, query, p.schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, dataType, udt, nullable, identity string
			def                                     sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &udt, &nullable, &def, &identity); err != nil {
			return err
		}
		raw := dataType
		if dataType == "USER-DEFINED" {
			raw = udt
		}
		c := &schema.Column{
			Name:     name,
			Type:     postgresType(dataType),
			RawType:  raw,
			Nullable: nullable == "YES",
		}
		if def.Valid {
			c.HasDefault = true
			c.Default = def.String
		}
		if identity == "YES" || (def.Valid && strings.HasPrefix(def.String, "nextval(")) {
			c.AutoIncrement = true
			// Sequence defaults are the engine's concern, not a value
			// the generated code should ever write.
			c.HasDefault = false
			c.Default = ""
		}
		t.Columns = append(t.Columns, c)
	}
	return rows.Err()
}

func (p *PostgresInspector) indexes(ctx context.Context, t *schema.Table) error {
	const query = `
		SELECT i.relname, a.attname, ix.indisunique, ix.indisprimary
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r' AND n.nspname = $1 AND t.relname = $2
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`
	rows, err := p.db.QueryContext(ctx, query, p.schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()
	byName := make(map[string]*schema.Index)
	for rows.Next() {
		var (
			name, column    string
			unique, primary bool
		)
		if err := rows.Scan(&name, &column, &unique, &primary); err != nil {
			return err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{Name: name, Unique: unique, Primary: primary}
			byName[name] = idx
			t.Indexes = append(t.Indexes, idx)
		}
		idx.Columns = append(idx.Columns, column)
	}
	return rows.Err()
}

// foreignKeys loads the table's foreign keys. Referenced columns are
// matched to local ones through position_in_unique_constraint, so a
// composite key yields one row per column pair in key order.
func (p *PostgresInspector) foreignKeys(ctx context.Context, t *schema.Table) error {
	const query = `
		SELECT tc.constraint_name, kcu.column_name, rkcu.table_name, rkcu.column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		JOIN information_schema.key_column_usage AS rkcu
			ON rkcu.constraint_name = rc.unique_constraint_name
			AND rkcu.constraint_schema = rc.unique_constraint_schema
			AND rkcu.ordinal_position = kcu.position_in_unique_constraint
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`
	rows, err := p.db.QueryContext(ctx, query, p.schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()
	byName := make(map[string]*schema.ForeignKey)
	for rows.Next() {
		var name, column, refTable, refColumn string
		if err := rows.Scan(&name, &column, &refTable, &refColumn); err != nil {
			return err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &schema.ForeignKey{Name: name, RefTable: refTable}
			byName[name] = fk
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)
	}
	return rows.Err()
}

// postgresType normalizes a Postgres column type.
func postgresType(dataType string) schema.Type {
	switch dataType {
	case "smallint", "integer":
		return schema.TypeInt
	case "bigint":
		return schema.TypeInt64
	case "real", "double precision", "numeric":
		return schema.TypeFloat64
	case "boolean":
		return schema.TypeBool
	case "bytea":
		return schema.TypeBytes
	case "uuid":
		return schema.TypeUUID
	case "json", "jsonb":
		return schema.TypeJSON
	case "date", "time with time zone", "time without time zone",
		"timestamp with time zone", "timestamp without time zone":
		return schema.TypeTime
	case "ARRAY":
		return schema.TypeJSON
	}
	// text, varchar, char, enums and domains all read as text.
	return schema.TypeString
}
