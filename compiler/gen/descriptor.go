package gen

import (
	"fmt"
	"strings"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// A Property describes one member of a generated bean: either a scalar
// column value or a reference to a related bean backed by a foreign key.
// Exactly one property exists per logical relationship; a multi-column
// foreign key yields one ObjectProperty, never one per column.
//
// Properties carry a one-time alternative-name flag. Once flipped by the
// conflict pass, the struct-field, getter and setter names switch to a
// disambiguated form and never switch back.
type Property interface {
	// Name is the exported struct-field name of the property.
	Name() string
	// Getter is the accessor method name ("Get" + Name).
	Getter() string
	// Setter is the mutator method name ("Set" + Name).
	Setter() string
	// JSONKey is the key the property serializes under.
	JSONKey() string
	// Compulsory reports if the property must be assigned in the
	// bean constructor: no default, not nullable, not auto-generated.
	Compulsory() bool
	// Nillable reports if the property can hold no value.
	Nillable() bool
	// PrimaryKey reports if the property belongs to the table's
	// primary key. Primary-key properties are owned by the root of an
	// inheritance chain and are never overridden further down.
	PrimaryKey() bool
	// Table returns the table the property was resolved from.
	Table() *schema.Table
	// UseAlternativeName flips the property to its disambiguated name.
	UseAlternativeName()

	describe() string
}

type (
	// ScalarProperty maps one column to one typed bean property.
	ScalarProperty struct {
		// Column is the backing column.
		Column *schema.Column

		table *schema.Table
		pk    bool
		alt   bool
	}

	// ObjectProperty maps one foreign key (all of its columns) to a
	// single reference property pointing at the target bean.
	ObjectProperty struct {
		// FK is the constraint the property represents.
		FK *schema.ForeignKey
		// Target is the bean the property points at.
		Target *Bean

		table *schema.Table
		alt   bool
	}
)

// Name returns the exported struct-field name. The alternative form
// suffixes the column name with "Value".
func (p *ScalarProperty) Name() string {
	name := pascal(p.Column.Name)
	if p.alt {
		name += "Value"
	}
	return name
}

// Getter returns the accessor method name.
func (p *ScalarProperty) Getter() string { return "Get" + p.Name() }

// Setter returns the mutator method name.
func (p *ScalarProperty) Setter() string { return "Set" + p.Name() }

// JSONKey returns the serialization key of the property.
func (p *ScalarProperty) JSONKey() string { return snake(p.Name()) }

// Compulsory reports if the property must be assigned in the constructor.
func (p *ScalarProperty) Compulsory() bool {
	return !p.Column.Nullable && !p.Column.HasDefault && !p.Column.AutoIncrement
}

// Nillable reports if the backing column accepts NULL.
func (p *ScalarProperty) Nillable() bool { return p.Column.Nullable }

// PrimaryKey reports if the column belongs to the table's primary key.
func (p *ScalarProperty) PrimaryKey() bool { return p.pk }

// Table returns the owning table.
func (p *ScalarProperty) Table() *schema.Table { return p.table }

// UseAlternativeName flips the property to its disambiguated name.
func (p *ScalarProperty) UseAlternativeName() { p.alt = true }

// Type returns the normalized scalar type of the backing column.
func (p *ScalarProperty) Type() schema.Type { return p.Column.Type }

func (p *ScalarProperty) describe() string {
	return fmt.Sprintf("column %q", p.Column.Name)
}

// Name returns the exported struct-field name. A single-column key
// derives it from the column with its id marker trimmed ("manager_id"
// becomes "Manager"); a composite key uses the target bean name. The
// alternative form appends "By" and the local column names.
func (p *ObjectProperty) Name() string {
	if p.alt {
		return p.Target.Name + "By" + joinPascal(p.FK.Columns)
	}
	if len(p.FK.Columns) == 1 {
		return pascal(trimIDSuffix(p.FK.Columns[0]))
	}
	return p.Target.Name
}

// Getter returns the accessor method name.
func (p *ObjectProperty) Getter() string { return "Get" + p.Name() }

// Setter returns the mutator method name.
func (p *ObjectProperty) Setter() string { return "Set" + p.Name() }

// JSONKey returns the serialization key of the property.
func (p *ObjectProperty) JSONKey() string { return snake(p.Name()) }

// Compulsory reports if the reference must be assigned in the
// constructor: true only when no local column of the key is nullable.
func (p *ObjectProperty) Compulsory() bool {
	for _, name := range p.FK.Columns {
		if c, ok := p.table.Column(name); ok && c.Nullable {
			return false
		}
	}
	return true
}

// Nillable reports if the reference can be absent.
func (p *ObjectProperty) Nillable() bool { return !p.Compulsory() }

// PrimaryKey reports if every local column of the key belongs to the
// table's primary key.
func (p *ObjectProperty) PrimaryKey() bool {
	pk := p.table.PrimaryKey()
	if pk == nil {
		return false
	}
	for _, name := range p.FK.Columns {
		if !contains(pk.Columns, name) {
			return false
		}
	}
	return true
}

// Table returns the owning table.
func (p *ObjectProperty) Table() *schema.Table { return p.table }

// UseAlternativeName flips the property to its disambiguated name.
func (p *ObjectProperty) UseAlternativeName() { p.alt = true }

func (p *ObjectProperty) describe() string {
	return fmt.Sprintf("constraint %q", p.FK.Name)
}

// joinPascal renders column names as one PascalCase chain joined by
// "And": ["author_id"] gives "AuthorID", ["a", "b"] gives "AAndB".
func joinPascal(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = pascal(c)
	}
	return strings.Join(parts, "And")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
