package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// MySQLInspector extracts a schema snapshot from MySQL or MariaDB
// through information_schema. An empty schema name inspects the
// connection's current database.
type MySQLInspector struct {
	db     *sql.DB
	schema string
}

// Inspect implements Inspector.
func (m *MySQLInspector) Inspect(ctx context.Context) (*schema.Schema, error) {
	name := m.schema
	if name == "" {
		if err := m.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect: resolving current database: %w", err)
		}
	}
	names, err := m.tableNames(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("inspect: listing tables: %w", err)
	}
	tables := make([]*schema.Table, 0, len(names))
	for _, tn := range names {
		t, err := m.inspectTable(ctx, name, tn)
		if err != nil {
			return nil, fmt.Errorf("inspect: table %s: %w", tn, err)
		}
		tables = append(tables, t)
	}
	return schema.New(name, tables...), nil
}

func (m *MySQLInspector) tableNames(ctx context.Context, dbName string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	rows, err := m.db.QueryContext(ctx, query, dbName)
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

func (m *MySQLInspector) inspectTable(ctx context.Context, dbName, name string) (*schema.Table, error) {
	t := &schema.Table{Name: name}
	if err := m.columns(ctx, dbName, t); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if err := m.indexes(ctx, dbName, t); err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	if err := m.foreignKeys(ctx, dbName, t); err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	return t, nil
}

func (m *MySQLInspector) columns(ctx context.Context, dbName string, t *schema.Table) error {
	const query = `
		SELECT column_name, data_type, column_type, is_nullable, column_default, extra
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`
	rows, err := m.db.QueryContext(ctx, query, dbName, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, dataType, columnType, nullable, extra string
			def                                         sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &columnType, &nullable, &def, &extra); err != nil {
			return err
		}
		c := &schema.Column{
			Name:          name,
			Type:          mysqlType(dataType, columnType),
			RawType:       columnType,
			Nullable:      nullable == "YES",
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
		}
		if def.Valid && !c.AutoIncrement {
			c.HasDefault = true
			c.Default = def.String
		}
		t.Columns = append(t.Columns, c)
	}
	return rows.Err()
}

func (m *MySQLInspector) indexes(ctx context.Context, dbName string, t *schema.Table) error {
	const query = `
		SELECT index_name, column_name, non_unique
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index`
	rows, err := m.db.QueryContext(ctx, query, dbName, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()
	byName := make(map[string]*schema.Index)
	for rows.Next() {
		var (
			name, column string
			nonUnique    int
		)
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{
				Name:    name,
				Unique:  nonUnique == 0,
				Primary: name == "PRIMARY",
			}
			byName[name] = idx
			t.Indexes = append(t.Indexes, idx)
		}
		idx.Columns = append(idx.Columns, column)
	}
	return rows.Err()
}

func (m *MySQLInspector) foreignKeys(ctx context.Context, dbName string, t *schema.Table) error {
	const query = `
		SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ? AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`
	rows, err := m.db.QueryContext(ctx, query, dbName, t.Name)
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

// mysqlType normalizes a MySQL column type. tinyint(1) reads as bool,
// matching the common boolean convention.
func mysqlType(dataType, columnType string) schema.Type {
	switch dataType {
	case "tinyint":
		if strings.HasPrefix(columnType, "tinyint(1)") {
			return schema.TypeBool
		}
		return schema.TypeInt
	case "smallint", "mediumint", "int":
		return schema.TypeInt
	case "bigint":
		return schema.TypeInt64
	case "float", "double", "decimal":
		return schema.TypeFloat64
	case "binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob", "bit":
		return schema.TypeBytes
	case "date", "datetime", "timestamp", "time", "year":
		return schema.TypeTime
	case "json":
		return schema.TypeJSON
	}
	return schema.TypeString
}
