package gen

import (
	"fmt"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// A Method describes a navigation method on a generated DAO: either the
// reverse side of a foreign key (one-to-many) or a hop across a junction
// table (many-to-many). Like properties, methods carry a one-time
// alternative-name flag flipped by the conflict pass.
type Method interface {
	// Name is the generated method name.
	Name() string
	// Target is the bean the method returns instances of.
	Target() *Bean
	// UseAlternativeName flips the method to its disambiguated name.
	UseAlternativeName()

	describe() string
}

type (
	// DirectForeignKeyMethod navigates a foreign key backwards: given a
	// bean of the referenced table, it fetches the rows of the declaring
	// table pointing at it.
	DirectForeignKeyMethod struct {
		// Source is the bean of the declaring table (the "many" side).
		Source *Bean
		// FK is the constraint being navigated.
		FK *schema.ForeignKey

		owner *Bean
		alt   bool
	}

	// PivotTableMethod navigates a junction table: given a bean of one
	// side, it fetches the beans of the other side joined through the
	// junction rows.
	PivotTableMethod struct {
		// Pivot is the junction table being crossed.
		Pivot *schema.Table
		// Remote is the bean on the far side of the junction.
		Remote *Bean
		// LocalFK is the junction constraint pointing at the owning table.
		LocalFK *schema.ForeignKey
		// RemoteFK is the junction constraint pointing at the remote table.
		RemoteFK *schema.ForeignKey

		owner *Bean
		alt   bool
	}
)

// Name returns the method name, derived from the declaring table in
// plural form: a "posts" table referencing the owner yields "GetPosts".
// The alternative form appends "By" and the constraint's column names.
func (m *DirectForeignKeyMethod) Name() string {
	name := "Get" + pascal(plural(m.Source.Table.Name))
	if m.alt {
		name += "By" + joinPascal(m.FK.Columns)
	}
	return name
}

// Target returns the bean the method yields.
func (m *DirectForeignKeyMethod) Target() *Bean { return m.Source }

// UseAlternativeName flips the method to its disambiguated name.
func (m *DirectForeignKeyMethod) UseAlternativeName() { m.alt = true }

func (m *DirectForeignKeyMethod) describe() string {
	return fmt.Sprintf("constraint %q of table %q", m.FK.Name, m.Source.Table.Name)
}

// Name returns the method name, derived from the remote table in plural
// form: a users/roles junction yields "GetRoles" on the user side. The
// alternative form appends "Via" and the junction table name.
func (m *PivotTableMethod) Name() string {
	name := "Get" + pascal(plural(m.Remote.Table.Name))
	if m.alt {
		name += "Via" + pascal(m.Pivot.Name)
	}
	return name
}

// Target returns the bean the method yields.
func (m *PivotTableMethod) Target() *Bean { return m.Remote }

// UseAlternativeName flips the method to its disambiguated name.
func (m *PivotTableMethod) UseAlternativeName() { m.alt = true }

func (m *PivotTableMethod) describe() string {
	return fmt.Sprintf("junction table %q", m.Pivot.Name)
}
