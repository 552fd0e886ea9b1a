package gen

import (
	"github.com/moufmouf/tdbm/compiler/schema"
)

// Graph is the fully resolved generation model: one bean per concrete
// table, with inheritance, properties, navigation methods and finders
// already conflict-free. It is the only input the emitters consume.
type Graph struct {
	*Config
	// Analyzer exposes the structural facts the graph was built from.
	Analyzer *schema.Analyzer
	// Beans holds all beans in table-declaration order.
	Beans []*Bean

	beans map[string]*Bean
}

// NewGraph resolves the analyzed schema into a generation model. It
// fails fast on structural defects: a table without a primary key, an
// inheritance cycle, or a naming conflict that alternative naming cannot
// solve.
func NewGraph(c *Config, a *schema.Analyzer) (*Graph, error) {
	g := &Graph{
		Config:   c,
		Analyzer: a,
		beans:    make(map[string]*Bean, len(a.Tables())),
	}
	for _, t := range a.Tables() {
		if !t.HasPrimaryKey() {
			return nil, NewSchemaIntegrityError(t.Name, "table has no primary key")
		}
	}
	names := make(map[string]*Bean, len(a.Tables()))
	for _, t := range a.Tables() {
		if a.IsJunctionTable(t.Name) {
			continue
		}
		b := &Bean{Name: pascal(singular(t.Name)), Table: t, graph: g}
		if prev, ok := names[b.Name]; ok {
			return nil, NewNamingConflictError(t.Name, b.Name,
				[]string{"table " + prev.Table.Name, "table " + t.Name})
		}
		names[b.Name] = b
		g.Beans = append(g.Beans, b)
		g.beans[t.Name] = b
	}
	if err := g.linkParents(); err != nil {
		return nil, err
	}
	for _, b := range g.Beans {
		if err := b.resolveProperties(); err != nil {
			return nil, err
		}
	}
	if err := g.resolveMethods(); err != nil {
		return nil, err
	}
	for _, b := range g.Beans {
		if err := b.resolveFinders(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Bean returns the bean generated for the named table.
func (g *Graph) Bean(table string) (*Bean, bool) {
	b, ok := g.beans[table]
	return b, ok
}

// linkParents wires the inheritance chains and rejects cycles.
func (g *Graph) linkParents() error {
	for _, b := range g.Beans {
		fk := g.Analyzer.ParentRelationship(b.Table.Name)
		if fk == nil {
			continue
		}
		parent, ok := g.Bean(fk.RefTable)
		if !ok {
			return NewSchemaIntegrityError(b.Table.Name,
				"inheritance link "+fk.Name+" references table "+fk.RefTable+", which maps to no bean")
		}
		b.Parent = parent
	}
	for _, b := range g.Beans {
		hops := 0
		for p := b.Parent; p != nil; p = p.Parent {
			hops++
			if hops > len(g.Beans) {
				return NewSchemaIntegrityError(b.Table.Name, "inheritance chain forms a cycle")
			}
		}
	}
	return nil
}

// resolveMethods builds the navigation methods of every bean: the
// reverse side of each incoming foreign key, and one hop method per side
// of each junction table. A junction whose two sides land on the same
// table is skipped with a warning: both hops would describe the same
// relationship. Each bean's method set then goes through the naming
// conflict pass.
func (g *Graph) resolveMethods() error {
	for _, b := range g.Beans {
		for _, in := range g.Analyzer.IncomingForeignKeys(b.Table.Name) {
			source, ok := g.Bean(in.Table.Name)
			if !ok {
				continue
			}
			b.Methods = append(b.Methods, &DirectForeignKeyMethod{
				Source: source,
				FK:     in.ForeignKey,
				owner:  b,
			})
		}
	}
	for _, jt := range g.Analyzer.JunctionTables() {
		left, right := jt.ForeignKeys[0], jt.ForeignKeys[1]
		if left.RefTable == right.RefTable {
			g.logger().Warn("skipping junction table with both sides on one table",
				"table", jt.Name, "target", left.RefTable)
			continue
		}
		if err := g.addPivotMethod(jt, left, right); err != nil {
			return err
		}
		if err := g.addPivotMethod(jt, right, left); err != nil {
			return err
		}
	}
	for _, b := range g.Beans {
		if err := resolveMethodConflicts(b.Table.Name, b.Methods); err != nil {
			return err
		}
	}
	return nil
}

// addPivotMethod adds, on the bean referenced by localFK, the method
// crossing the junction table toward the bean referenced by remoteFK.
func (g *Graph) addPivotMethod(jt *schema.Table, localFK, remoteFK *schema.ForeignKey) error {
	owner, ok := g.Bean(localFK.RefTable)
	if !ok {
		return NewSchemaIntegrityError(jt.Name,
			"constraint "+localFK.Name+" references table "+localFK.RefTable+", which maps to no bean")
	}
	remote, ok := g.Bean(remoteFK.RefTable)
	if !ok {
		return NewSchemaIntegrityError(jt.Name,
			"constraint "+remoteFK.Name+" references table "+remoteFK.RefTable+", which maps to no bean")
	}
	owner.Methods = append(owner.Methods, &PivotTableMethod{
		Pivot:    jt,
		Remote:   remote,
		LocalFK:  localFK,
		RemoteFK: remoteFK,
		owner:    owner,
	})
	return nil
}
