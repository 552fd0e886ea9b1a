package golang

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/moufmouf/tdbm/compiler/gen"
	"github.com/moufmouf/tdbm/compiler/schema"
)

// localKeyColumns maps each root primary-key column to the column of
// the bean's own table carrying the same value. For a bean without a
// parent the mapping is the identity.
func (e *Emitter) localKeyColumns(b *gen.Bean) map[string]string {
	pk := b.Table.PrimaryKey()
	out := make(map[string]string, len(pk.Columns))
	for _, c := range pk.Columns {
		cur, cb := c, b
		for cb.Parent != nil {
			fk := e.graph.Analyzer.ParentRelationship(cb.Table.Name)
			ref, err := fk.RefColumn(cur)
			if err != nil {
				break
			}
			cur, cb = ref, cb.Parent
		}
		out[cur] = c
	}
	return out
}

// chain returns the bean's inheritance chain root-first, the bean
// itself included. Persistence walks it top-down on insert and update,
// bottom-up on delete.
func chain(b *gen.Bean) []*gen.Bean {
	return append(b.Ancestors(), b)
}

// columnValue returns the bean-field expression carrying the value of
// one column. Inheritance-link columns resolve through the parent
// chain; columns backing a reference property have no single field and
// return false.
func (e *Emitter) columnValue(cb *gen.Bean, col string) (jen.Code, bool) {
	if fk := e.graph.Analyzer.ParentRelationship(cb.Table.Name); fk != nil && fk.HasColumn(col) {
		ref, err := fk.RefColumn(col)
		if err != nil {
			return nil, false
		}
		return e.columnValue(cb.Parent, ref)
	}
	for _, p := range cb.Properties {
		if sp, ok := p.(*gen.ScalarProperty); ok && sp.Column.Name == col {
			return jen.Id("b").Dot(sp.Name()), true
		}
	}
	return nil, false
}

// genRefValuePrelude declares, for every reference property of the
// chain bean, one any-typed variable per foreign-key column, filled
// from the referenced bean's getters when the reference is set. It
// returns the column-to-variable mapping.
func genRefValuePrelude(g *jen.Group, cb *gen.Bean, rv *int) (map[string]jen.Code, error) {
	out := make(map[string]jen.Code)
	for _, p := range cb.ObjectProperties() {
		vars := make([]string, len(p.FK.Columns))
		for i, lc := range p.FK.Columns {
			vars[i] = fmt.Sprintf("rv%d", *rv)
			*rv++
			g.Var().Id(vars[i]).Any()
			out[lc] = jen.Id(vars[i])
		}
		assigns := make([]jen.Code, 0, len(p.FK.Columns))
		for i := range p.FK.Columns {
			sp, ok := p.Target.ScalarByColumn(p.FK.RefColumns[i])
			if !ok {
				return nil, fmt.Errorf("golang: table %s: column %s referenced by %s resolves to no scalar property",
					cb.Table.Name, p.FK.RefColumns[i], p.FK.Name)
			}
			assigns = append(assigns, jen.Id(vars[i]).Op("=").Id("b").Dot(p.Name()).Dot(sp.Getter()).Call())
		}
		g.If(jen.Id("b").Dot(p.Name()).Op("!=").Nil()).Block(assigns...)
	}
	return out, nil
}

// generatedKeyColumn returns the auto-generated key column of a chain
// table, if it has one worth reading back: a single-column primary key,
// auto-incremented and not an inheritance link.
func (e *Emitter) generatedKeyColumn(cb *gen.Bean) *schema.Column {
	pk := cb.Table.PrimaryKey()
	if pk == nil || len(pk.Columns) != 1 {
		return nil
	}
	c, ok := cb.Table.Column(pk.Columns[0])
	if !ok || !c.AutoIncrement {
		return nil
	}
	if fk := e.graph.Analyzer.ParentRelationship(cb.Table.Name); fk != nil && fk.HasColumn(c.Name) {
		return nil
	}
	return c
}

// genSave generates Save and its insert/update halves. A bean loaded or
// already saved through the DAO updates in place; a fresh bean inserts
// every table of its inheritance chain root-first.
func (e *Emitter) genSave(f *jen.File, b *gen.Bean) error {
	f.Commentf("Save persists the %s: a fresh bean inserts, a loaded one updates.", b.Name)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("Save").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("b").Op("*").Id(b.Name),
	).Error().Block(
		jen.If(jen.Id("b").Dot("persisted")).Block(
			jen.Return(jen.Id("d").Dot("update").Call(jen.Id("ctx"), jen.Id("b"))),
		),
		jen.Return(jen.Id("d").Dot("insert").Call(jen.Id("ctx"), jen.Id("b"))),
	)
	if err := e.genInsert(f, b); err != nil {
		return err
	}
	return e.genUpdate(f, b)
}

func (e *Emitter) genInsert(f *jen.File, b *gen.Bean) error {
	var outerErr error
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("insert").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("b").Op("*").Id(b.Name),
	).Error().BlockFunc(func(g *jen.Group) {
		rv := 0
		for ci, cb := range chain(b) {
			refVals, err := genRefValuePrelude(g, cb, &rv)
			if err != nil {
				outerErr = err
				return
			}
			genCol := e.generatedKeyColumn(cb)
			var cols, vals []jen.Code
			for _, c := range cb.Table.Columns {
				if genCol != nil && c.Name == genCol.Name {
					continue
				}
				expr, ok := refVals[c.Name]
				if !ok {
					expr, ok = e.columnValue(cb, c.Name)
				}
				if !ok {
					continue
				}
				cols = append(cols, jen.Lit(c.Name))
				vals = append(vals, expr)
			}
			call := func(returning string) *jen.Statement {
				return jen.Qual(runtimePkg, "Insert").Call(
					jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Lit(cb.Table.Name),
					jen.Index().String().Values(cols...),
					jen.Index().Any().Values(vals...),
					jen.Lit(returning),
				)
			}
			if genCol == nil {
				g.If(
					jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(call("")),
					jen.Err().Op("!=").Nil(),
				).Block(jen.Return(jen.Err()))
				continue
			}
			idVar := fmt.Sprintf("id%d", ci)
			g.List(jen.Id(idVar), jen.Err()).Op(":=").Add(call(genCol.Name))
			g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
			sp, ok := cb.ScalarByColumn(genCol.Name)
			if !ok {
				outerErr = fmt.Errorf("golang: table %s: generated key column %s resolves to no scalar property", cb.Table.Name, genCol.Name)
				return
			}
			if genCol.Type == schema.TypeInt64 {
				g.Id("b").Dot(sp.Name()).Op("=").Id(idVar)
			} else {
				g.Id("b").Dot(sp.Name()).Op("=").Add(baseType(genCol.Type)).Call(jen.Id(idVar))
			}
		}
		g.Id("b").Dot("persisted").Op("=").True()
		g.Return(jen.Nil())
	})
	return outerErr
}

func (e *Emitter) genUpdate(f *jen.File, b *gen.Bean) error {
	var outerErr error
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("update").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("b").Op("*").Id(b.Name),
	).Error().BlockFunc(func(g *jen.Group) {
		rv := 0
		for _, cb := range chain(b) {
			pk := cb.Table.PrimaryKey()
			refVals, err := genRefValuePrelude(g, cb, &rv)
			if err != nil {
				outerErr = err
				return
			}
			var cols, vals []jen.Code
			for _, c := range cb.Table.Columns {
				if contains(pk.Columns, c.Name) || c.AutoIncrement {
					continue
				}
				expr, ok := refVals[c.Name]
				if !ok {
					expr, ok = e.columnValue(cb, c.Name)
				}
				if !ok {
					continue
				}
				cols = append(cols, jen.Lit(c.Name))
				vals = append(vals, expr)
			}
			if len(cols) == 0 {
				continue
			}
			keyCols, keyVals, err := e.keyArgs(cb)
			if err != nil {
				outerErr = err
				return
			}
			g.If(
				jen.Err().Op(":=").Qual(runtimePkg, "Update").Call(
					jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Lit(cb.Table.Name),
					jen.Index().String().Values(cols...),
					jen.Index().Any().Values(vals...),
					jen.Index().String().Values(keyCols...),
					jen.Index().Any().Values(keyVals...),
				),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err()))
		}
		g.Return(jen.Nil())
	})
	return outerErr
}

// keyArgs returns the primary-key column and value expressions of one
// chain table.
func (e *Emitter) keyArgs(cb *gen.Bean) ([]jen.Code, []jen.Code, error) {
	pk := cb.Table.PrimaryKey()
	cols := make([]jen.Code, 0, len(pk.Columns))
	vals := make([]jen.Code, 0, len(pk.Columns))
	for _, c := range pk.Columns {
		expr, ok := e.columnValue(cb, c)
		if !ok {
			return nil, nil, fmt.Errorf("golang: table %s: key column %s resolves to no scalar property", cb.Table.Name, c)
		}
		cols = append(cols, jen.Lit(c))
		vals = append(vals, expr)
	}
	return cols, vals, nil
}

// genDelete generates Delete: nullable references to the bean are
// detached, its junction rows removed, and the rows of its inheritance
// chain deleted bottom-up. References declared NOT NULL are left to the
// database's own constraint handling.
func (e *Emitter) genDelete(f *jen.File, b *gen.Bean) error {
	var outerErr error
	f.Commentf("Delete removes the %s, detaching nullable references and junction rows first.", b.Name)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("Delete").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("b").Op("*").Id(b.Name),
	).Error().BlockFunc(func(g *jen.Group) {
		for _, m := range b.Methods {
			switch m := m.(type) {
			case *gen.DirectForeignKeyMethod:
				if !allNullable(m.Source.Table, m.FK.Columns) {
					continue
				}
				vals, err := e.refValues(b, m.FK)
				if err != nil {
					outerErr = err
					return
				}
				g.If(
					jen.Err().Op(":=").Qual(runtimePkg, "SetNull").Call(
						jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Lit(m.Source.Table.Name),
						litStrings(m.FK.Columns), litStrings(m.FK.Columns),
						jen.Index().Any().Values(vals...),
					),
					jen.Err().Op("!=").Nil(),
				).Block(jen.Return(jen.Err()))
			case *gen.PivotTableMethod:
				vals, err := e.refValues(b, m.LocalFK)
				if err != nil {
					outerErr = err
					return
				}
				g.If(
					jen.Err().Op(":=").Qual(runtimePkg, "Delete").Call(
						jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Lit(m.Pivot.Name),
						litStrings(m.LocalFK.Columns),
						jen.Index().Any().Values(vals...),
					),
					jen.Err().Op("!=").Nil(),
				).Block(jen.Return(jen.Err()))
			}
		}
		beans := chain(b)
		for i := len(beans) - 1; i >= 0; i-- {
			cb := beans[i]
			keyCols, keyVals, err := e.keyArgs(cb)
			if err != nil {
				outerErr = err
				return
			}
			g.If(
				jen.Err().Op(":=").Qual(runtimePkg, "Delete").Call(
					jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Lit(cb.Table.Name),
					jen.Index().String().Values(keyCols...),
					jen.Index().Any().Values(keyVals...),
				),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err()))
		}
		g.Id("b").Dot("persisted").Op("=").False()
		g.Return(jen.Nil())
	})
	return outerErr
}

// refValues returns the bean-field expressions carrying the values a
// foreign key references on this bean.
func (e *Emitter) refValues(b *gen.Bean, fk *schema.ForeignKey) ([]jen.Code, error) {
	vals := make([]jen.Code, 0, len(fk.RefColumns))
	for _, rc := range fk.RefColumns {
		sp, ok := b.ScalarByColumn(rc)
		if !ok {
			return nil, fmt.Errorf("golang: table %s: column %s referenced by %s resolves to no scalar property", b.Table.Name, rc, fk.Name)
		}
		vals = append(vals, jen.Id("b").Dot(sp.Name()))
	}
	return vals, nil
}

func allNullable(t *schema.Table, cols []string) bool {
	for _, name := range cols {
		c, ok := t.Column(name)
		if !ok || !c.Nullable {
			return false
		}
	}
	return true
}

func litStrings(ss []string) jen.Code {
	vals := make([]jen.Code, 0, len(ss))
	for _, s := range ss {
		vals = append(vals, jen.Lit(s))
	}
	return jen.Index().String().Values(vals...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
