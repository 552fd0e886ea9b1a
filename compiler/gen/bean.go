package gen

import (
	"github.com/moufmouf/tdbm/compiler/schema"
)

// Bean is the generated-class model of one table: its conflict-free
// properties, its navigation methods and its finders. A bean whose table
// extends another table (foreign key over the full primary key) carries a
// parent bean and inherits its properties.
type Bean struct {
	// Name is the bean type name, the singular PascalCase table name.
	Name string
	// Table is the backing table.
	Table *schema.Table
	// Parent is the bean this bean extends, or nil.
	Parent *Bean
	// Properties are the bean's own resolved properties in
	// column-declaration order. Inherited properties are not repeated.
	Properties []Property
	// Methods are the navigation methods of the bean's DAO.
	Methods []Method
	// Finders are the index-derived lookup methods of the bean's DAO.
	Finders []*FinderMethod

	graph *Graph
}

// DAOName returns the type name of the bean's data-access object.
func (b *Bean) DAOName() string { return b.Name + "DAO" }

// Constructor returns the name of the bean's constructor function.
func (b *Bean) Constructor() string { return "New" + b.Name }

// FileName returns the base name of the bean's generated file.
func (b *Bean) FileName() string { return snake(b.Name) + ".go" }

// DAOFileName returns the base name of the DAO's generated file.
func (b *Bean) DAOFileName() string { return snake(b.Name) + "_dao.go" }

// Ancestors returns the inheritance chain of the bean from the root down
// to (and excluding) the bean itself.
func (b *Bean) Ancestors() []*Bean {
	if b.Parent == nil {
		return nil
	}
	return append(b.Parent.Ancestors(), b.Parent)
}

// Root returns the root of the bean's inheritance chain (the bean itself
// when it has no parent). The root owns the primary key.
func (b *Bean) Root() *Bean {
	if b.Parent == nil {
		return b
	}
	return b.Parent.Root()
}

// AllProperties returns the effective property set of the bean: the
// parent's properties first, overlaid with the bean's own by name. A
// same-named own property shadows the inherited one, except primary-key
// properties, which always stay owned by the ancestor.
func (b *Bean) AllProperties() []Property {
	if b.Parent == nil {
		return b.Properties
	}
	inherited := b.Parent.AllProperties()
	index := make(map[string]int, len(inherited))
	out := make([]Property, len(inherited), len(inherited)+len(b.Properties))
	copy(out, inherited)
	for i, p := range out {
		index[p.Name()] = i
	}
	for _, p := range b.Properties {
		i, ok := index[p.Name()]
		if !ok {
			out = append(out, p)
			continue
		}
		if out[i].PrimaryKey() {
			continue
		}
		out[i] = p
	}
	return out
}

// CompulsoryProperties returns the effective properties that the
// constructor must receive, in inheritance-then-declaration order.
func (b *Bean) CompulsoryProperties() []Property {
	var out []Property
	for _, p := range b.AllProperties() {
		if p.Compulsory() {
			out = append(out, p)
		}
	}
	return out
}

// ObjectProperties returns the bean's own reference properties.
func (b *Bean) ObjectProperties() []*ObjectProperty {
	var out []*ObjectProperty
	for _, p := range b.Properties {
		if op, ok := p.(*ObjectProperty); ok {
			out = append(out, op)
		}
	}
	return out
}

// ScalarByColumn returns the effective scalar property backed by the
// given column, searching inherited properties too.
func (b *Bean) ScalarByColumn(column string) (*ScalarProperty, bool) {
	for _, p := range b.AllProperties() {
		if sp, ok := p.(*ScalarProperty); ok && sp.Column.Name == column {
			return sp, true
		}
	}
	return nil, false
}

// ObjectByFK returns the bean's own reference property backed by the
// given constraint.
func (b *Bean) ObjectByFK(fk *schema.ForeignKey) (*ObjectProperty, bool) {
	for _, p := range b.ObjectProperties() {
		if p.FK == fk {
			return p, true
		}
	}
	return nil, false
}

// PrimaryKeyProperties returns the effective properties spanning the
// table's primary key, in key-declaration order.
func (b *Bean) PrimaryKeyProperties() []Property {
	pk := b.Root().Table.PrimaryKey()
	if pk == nil {
		return nil
	}
	out := make([]Property, 0, len(pk.Columns))
	for _, col := range pk.Columns {
		if sp, ok := b.Root().ScalarByColumn(col); ok {
			out = append(out, sp)
		}
	}
	return out
}

// resolveProperties computes the bean's own property set from its table:
// one scalar property per plain column, one reference property per
// foreign key (covering all of its columns at once). Columns of the
// inheritance link produce nothing; they exist only to join the parent
// row. The set then goes through the naming conflict pass.
func (b *Bean) resolveProperties() error {
	parentFK := b.graph.Analyzer.ParentRelationship(b.Table.Name)
	pk := b.Table.PrimaryKey()
	seen := make(map[*schema.ForeignKey]bool, len(b.Table.ForeignKeys))
	var props []Property
	for _, col := range b.Table.Columns {
		if parentFK != nil && parentFK.HasColumn(col.Name) {
			continue
		}
		if fk := b.Table.ForeignKeyFor(col.Name); fk != nil {
			if seen[fk] {
				continue
			}
			seen[fk] = true
			target, ok := b.graph.Bean(fk.RefTable)
			if !ok {
				return NewSchemaIntegrityError(b.Table.Name,
					"constraint "+fk.Name+" references table "+fk.RefTable+", which maps to no bean")
			}
			props = append(props, &ObjectProperty{FK: fk, Target: target, table: b.Table})
			continue
		}
		props = append(props, &ScalarProperty{
			Column: col,
			table:  b.Table,
			pk:     pk != nil && contains(pk.Columns, col.Name),
		})
	}
	if err := resolvePropertyConflicts(b.Table.Name, props); err != nil {
		return err
	}
	b.Properties = props
	return nil
}
