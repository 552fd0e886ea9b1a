package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// SQLiteInspector extracts a schema snapshot from SQLite through the
// PRAGMA interface.
type SQLiteInspector struct {
	db *sql.DB
}

// Inspect implements Inspector.
func (s *SQLiteInspector) Inspect(ctx context.Context) (*schema.Schema, error) {
	names, err := s.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect: listing tables: %w", err)
	}
	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := s.inspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspect: table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return schema.New("main", tables...), nil
}

func (s *SQLiteInspector) tableNames(ctx context.Context) ([]string, error) {
	const query = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
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

func (s *SQLiteInspector) inspectTable(ctx context.Context, name string) (*schema.Table, error) {
	t := &schema.Table{Name: name}
	if err := s.columns(ctx, t); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if err := s.indexes(ctx, t); err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	if err := s.foreignKeys(ctx, t); err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	return t, nil
}

// columns reads PRAGMA table_info and synthesizes the primary-key
// index, which SQLite does not report through index_list for rowid
// tables.
func (s *SQLiteInspector) columns(ctx context.Context, t *schema.Table) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", t.Name))
	if err != nil {
		return err
	}
	defer rows.Close()
	type pkCol struct {
		name string
		rank int
	}
	var pk []pkCol
	for rows.Next() {
		var (
			cid, notNull, pkRank int
			name, rawType        string
			def                  sql.NullString
		)
		if err := rows.Scan(&cid, &name, &rawType, &notNull, &def, &pkRank); err != nil {
			return err
		}
		c := &schema.Column{
			Name:     name,
			Type:     sqliteType(rawType),
			RawType:  rawType,
			Nullable: notNull == 0 && pkRank == 0,
		}
		if def.Valid {
			c.HasDefault = true
			c.Default = def.String
		}
		if pkRank > 0 {
			pk = append(pk, pkCol{name: name, rank: pkRank})
		}
		t.Columns = append(t.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(pk) > 0 {
		sort.Slice(pk, func(i, j int) bool { return pk[i].rank < pk[j].rank })
		idx := &schema.Index{Name: "pk_" + t.Name, Unique: true, Primary: true}
		for _, c := range pk {
			idx.Columns = append(idx.Columns, c.name)
		}
		t.Indexes = append(t.Indexes, idx)
		// A single INTEGER primary key aliases the rowid and
		// auto-generates its values.
		if len(pk) == 1 {
			if c, ok := t.Column(pk[0].name); ok && strings.EqualFold(c.RawType, "integer") {
				c.AutoIncrement = true
			}
		}
	}
	return nil
}

func (s *SQLiteInspector) indexes(ctx context.Context, t *schema.Table) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", t.Name))
	if err != nil {
		return err
	}
	type listed struct {
		name   string
		unique bool
	}
	var names []listed
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		// The primary key is synthesized from table_info.
		if origin == "pk" {
			continue
		}
		names = append(names, listed{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for _, l := range names {
		idx := &schema.Index{Name: l.name, Unique: l.unique}
		cols, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", l.name))
		if err != nil {
			return err
		}
		for cols.Next() {
			var (
				seqno, cid int
				column     sql.NullString
			)
			if err := cols.Scan(&seqno, &cid, &column); err != nil {
				cols.Close()
				return err
			}
			// Expression index members have no column name; skip the
			// whole index, it cannot back a finder parameter.
			if !column.Valid {
				idx = nil
				break
			}
			idx.Columns = append(idx.Columns, column.String)
		}
		cols.Close()
		if idx != nil && len(idx.Columns) > 0 {
			t.Indexes = append(t.Indexes, idx)
		}
	}
	return nil
}

func (s *SQLiteInspector) foreignKeys(ctx context.Context, t *schema.Table) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", t.Name))
	if err != nil {
		return err
	}
	defer rows.Close()
	byID := make(map[int]*schema.ForeignKey)
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &schema.ForeignKey{
				Name:     fmt.Sprintf("fk_%s_%d", t.Name, id),
				RefTable: refTable,
			}
			byID[id] = fk
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		fk.Columns = append(fk.Columns, from)
		// A missing target column means the key references the other
		// table's primary key implicitly.
		if to.Valid {
			fk.RefColumns = append(fk.RefColumns, to.String)
		} else {
			fk.RefColumns = append(fk.RefColumns, "id")
		}
	}
	return rows.Err()
}

// sqliteType normalizes a SQLite column type by affinity.
func sqliteType(raw string) schema.Type {
	u := strings.ToUpper(raw)
	switch {
	case strings.Contains(u, "INT"):
		return schema.TypeInt64
	case strings.Contains(u, "BOOL"):
		return schema.TypeBool
	case strings.Contains(u, "UUID"):
		return schema.TypeUUID
	case strings.Contains(u, "JSON"):
		return schema.TypeJSON
	case strings.Contains(u, "BLOB"):
		return schema.TypeBytes
	case strings.Contains(u, "REAL"), strings.Contains(u, "FLOA"),
		strings.Contains(u, "DOUB"), strings.Contains(u, "NUMERIC"),
		strings.Contains(u, "DECIMAL"):
		return schema.TypeFloat64
	case strings.Contains(u, "DATE"), strings.Contains(u, "TIME"):
		return schema.TypeTime
	}
	return schema.TypeString
}
