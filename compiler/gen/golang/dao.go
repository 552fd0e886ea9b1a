package golang

import (
	"fmt"
	"strconv"

	"github.com/dave/jennifer/jen"

	"github.com/moufmouf/tdbm/compiler/gen"
	"github.com/moufmouf/tdbm/compiler/schema"
)

// EmitDAO renders the data-access object of one bean: the row scanner
// and fetch helper, the DAO struct with GetByID, FindAll, the
// index-derived finders, the navigation methods, and Save/Delete.
func (e *Emitter) EmitDAO(b *gen.Bean) ([]byte, error) {
	f := e.newFile()
	genColumnsFunc(f, b)
	if err := e.genScanFunc(f, b); err != nil {
		return nil, err
	}
	genFetchFunc(f, b)
	genDAOStruct(f, b)
	if err := e.genGetByID(f, b); err != nil {
		return nil, err
	}
	genFindAll(f, b)
	for _, finder := range b.Finders {
		genFinder(f, b, finder)
	}
	for _, m := range b.Methods {
		if err := e.genMethod(f, b, m); err != nil {
			return nil, err
		}
	}
	if err := e.genSave(f, b); err != nil {
		return nil, err
	}
	if err := e.genDelete(f, b); err != nil {
		return nil, err
	}
	return render(f)
}

func columnsFuncName(b *gen.Bean) string { return gen.Camel(gen.Snake(b.Name)) + "Columns" }
func scanFuncName(b *gen.Bean) string    { return "scan" + b.Name }
func fetchFuncName(b *gen.Bean) string   { return "fetch" + b.Name }

// genColumnsFunc generates the own-table column list of the bean.
func genColumnsFunc(f *jen.File, b *gen.Bean) {
	cols := make([]jen.Code, 0, len(b.Table.Columns))
	for _, c := range b.Table.Columns {
		cols = append(cols, jen.Lit(c.Name))
	}
	f.Func().Id(columnsFuncName(b)).Params().Index().String().Block(
		jen.Return(jen.Index().String().Values(cols...)),
	)
}

// genScanFunc generates the row scanner of the bean. It reads one row
// of the bean's own table, loads the parent part through its fetch
// helper, and, when deep is set, resolves the bean's references one
// level (referenced beans come back with their own references unset).
func (e *Emitter) genScanFunc(f *jen.File, b *gen.Bean) error {
	parentFK := e.graph.Analyzer.ParentRelationship(b.Table.Name)
	f.Func().Id(scanFuncName(b)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("conn").Op("*").Qual(runtimePkg, "Connection"),
		jen.Id("rows").Op("*").Qual("database/sql", "Rows"),
		jen.Id("deep").Bool(),
	).Params(jen.Op("*").Id(b.Name), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.Var().DefsFunc(func(defs *jen.Group) {
			for i, c := range b.Table.Columns {
				defs.Id(tmpVar(i)).Add(scanType(c))
			}
		})
		scanArgs := make([]jen.Code, 0, len(b.Table.Columns))
		for i := range b.Table.Columns {
			scanArgs = append(scanArgs, jen.Op("&").Id(tmpVar(i)))
		}
		g.If(
			jen.Err().Op(":=").Id("rows").Dot("Scan").Call(scanArgs...),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Nil(), jen.Err()))
		g.Id("b").Op(":=").Op("&").Id(b.Name).Values()
		if b.Parent != nil {
			filters := make([]jen.Code, 0, len(parentFK.Columns))
			for i, lc := range parentFK.Columns {
				col, _ := b.Table.Column(lc)
				filters = append(filters, jen.Qual(runtimePkg, "Filter").Values(jen.Dict{
					jen.Id("Column"): jen.Lit(parentFK.RefColumns[i]),
					jen.Id("Value"):  scanValue(col, tmpVar(columnIndex(b.Table, lc))),
				}))
			}
			g.Block(
				jen.List(jen.Id("p"), jen.Err()).Op(":=").Id(fetchFuncName(b.Parent)).Call(
					append([]jen.Code{jen.Id("ctx"), jen.Id("conn")}, filters...)...),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
				jen.Id("b").Dot(b.Parent.Name).Op("=").Op("*").Id("p"),
			)
		}
		for _, p := range b.Properties {
			sp, ok := p.(*gen.ScalarProperty)
			if !ok {
				continue
			}
			i := columnIndex(b.Table, sp.Column.Name)
			assignScan(g, func() *jen.Statement {
				return jen.Id("b").Dot(sp.Name())
			}, sp.Column, tmpVar(i))
		}
		objs := b.ObjectProperties()
		if len(objs) > 0 {
			g.If(jen.Id("deep")).BlockFunc(func(deep *jen.Group) {
				for _, p := range objs {
					genRefHydration(deep, b, p)
				}
			})
		}
		g.Id("b").Dot("persisted").Op("=").True()
		g.Return(jen.Id("b"), jen.Nil())
	})
	return nil
}

// genRefHydration generates the lookup of one referenced bean from the
// scanned foreign-key values.
func genRefHydration(g *jen.Group, b *gen.Bean, p *gen.ObjectProperty) {
	filters := make([]jen.Code, 0, len(p.FK.Columns))
	var cond *jen.Statement
	for i, lc := range p.FK.Columns {
		col, _ := b.Table.Column(lc)
		tmp := tmpVar(columnIndex(b.Table, lc))
		if col.Nullable && !naturallyNillable(col.Type) {
			valid := jen.Id(tmp).Dot("Valid")
			if cond == nil {
				cond = valid
			} else {
				cond = cond.Op("&&").Add(valid)
			}
		}
		filters = append(filters, jen.Qual(runtimePkg, "Filter").Values(jen.Dict{
			jen.Id("Column"): jen.Lit(p.FK.RefColumns[i]),
			jen.Id("Value"):  scanValue(col, tmp),
		}))
	}
	body := []jen.Code{
		jen.List(jen.Id("ref"), jen.Err()).Op(":=").Id(fetchFuncName(p.Target)).Call(
			append([]jen.Code{jen.Id("ctx"), jen.Id("conn")}, filters...)...),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Id("b").Dot(p.Name()).Op("=").Id("ref"),
	}
	if cond != nil {
		g.If(cond).Block(body...)
		return
	}
	g.Block(body...)
}

// genFetchFunc generates the shallow fetch helper loading exactly one
// row of the bean's table by arbitrary equality filters.
func genFetchFunc(f *jen.File, b *gen.Bean) {
	f.Func().Id(fetchFuncName(b)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("conn").Op("*").Qual(runtimePkg, "Connection"),
		jen.Id("filters").Op("...").Qual(runtimePkg, "Filter"),
	).Params(jen.Op("*").Id(b.Name), jen.Error()).Block(
		jen.Id("q").Op(":=").Qual(runtimePkg, "Query").Values(jen.Dict{
			jen.Id("Table"):   jen.Lit(b.Table.Name),
			jen.Id("Columns"): jen.Id(columnsFuncName(b)).Call(),
			jen.Id("Filters"): jen.Id("filters"),
		}),
		jen.Return(jen.Qual(runtimePkg, "One").Call(
			jen.Id("ctx"), jen.Id("conn"), jen.Id("q"),
			jen.Func().Params(jen.Id("rows").Op("*").Qual("database/sql", "Rows")).Params(jen.Op("*").Id(b.Name), jen.Error()).Block(
				jen.Return(jen.Id(scanFuncName(b)).Call(jen.Id("ctx"), jen.Id("conn"), jen.Id("rows"), jen.False())),
			),
		)),
	)
}

// genDAOStruct generates the DAO struct, its constructor and the query
// and scan plumbing shared by all lookup methods.
func genDAOStruct(f *jen.File, b *gen.Bean) {
	f.Commentf("%s provides lookups and persistence for %s beans.", b.DAOName(), b.Name)
	f.Type().Id(b.DAOName()).Struct(
		jen.Id("conn").Op("*").Qual(runtimePkg, "Connection"),
	)
	f.Commentf("New%s creates a %s bound to the given connection.", b.DAOName(), b.DAOName())
	f.Func().Id("New" + b.DAOName()).Params(jen.Id("conn").Op("*").Qual(runtimePkg, "Connection")).Op("*").Id(b.DAOName()).Block(
		jen.Return(jen.Op("&").Id(b.DAOName()).Values(jen.Dict{jen.Id("conn"): jen.Id("conn")})),
	)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("query").Params().Qual(runtimePkg, "Query").Block(
		jen.Return(jen.Qual(runtimePkg, "Query").Values(jen.Dict{
			jen.Id("Table"):   jen.Lit(b.Table.Name),
			jen.Id("Columns"): jen.Id(columnsFuncName(b)).Call(),
		})),
	)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("scan").Params(jen.Id("ctx").Qual("context", "Context")).Func().Params(jen.Op("*").Qual("database/sql", "Rows")).Params(jen.Op("*").Id(b.Name), jen.Error()).Block(
		jen.Return(jen.Func().Params(jen.Id("rows").Op("*").Qual("database/sql", "Rows")).Params(jen.Op("*").Id(b.Name), jen.Error()).Block(
			jen.Return(jen.Id(scanFuncName(b)).Call(jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("rows"), jen.True())),
		)),
	)
}

// genGetByID generates the primary-key lookup.
func (e *Emitter) genGetByID(f *jen.File, b *gen.Bean) error {
	pkProps := b.PrimaryKeyProperties()
	pk := b.Root().Table.PrimaryKey()
	if len(pkProps) != len(pk.Columns) {
		return fmt.Errorf("golang: table %s: primary-key columns do not all resolve to scalar properties", b.Table.Name)
	}
	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	for _, p := range pkProps {
		params = append(params, jen.Id(paramName(p)).Add(propType(p)))
	}
	locals := e.localKeyColumns(b)
	f.Commentf("GetByID fetches the %s with the given primary key.", b.Name)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("GetByID").Params(params...).Params(jen.Op("*").Id(b.Name), jen.Error()).BlockFunc(func(g *jen.Group) {
		q := jen.Id("d").Dot("query").Call()
		for i, col := range pk.Columns {
			// The lookup filters on this table's key columns; in a chain
			// they carry the same values as the root's key.
			q = q.Dot("Where").Call(jen.Lit(locals[col]), jen.Id(paramName(pkProps[i])))
		}
		g.Id("q").Op(":=").Add(q)
		g.Return(jen.Qual(runtimePkg, "One").Call(jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("q"), jen.Id("d").Dot("scan").Call(jen.Id("ctx"))))
	})
	return nil
}

// genFindAll generates the unfiltered iterator over the whole table.
func genFindAll(f *jen.File, b *gen.Bean) {
	f.Commentf("FindAll iterates over every %s.", b.Name)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id("FindAll").Params(jen.Id("ctx").Qual("context", "Context")).Params(jen.Op("*").Qual(runtimePkg, "Iterator").Index(jen.Op("*").Id(b.Name)), jen.Error()).Block(
		jen.Return(jen.Qual(runtimePkg, "Iter").Call(jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("d").Dot("query").Call(), jen.Id("d").Dot("scan").Call(jen.Id("ctx")))),
	)
}

// genFinder generates one index-derived finder. The leading parameter
// is required; trailing parameters are optional and drop their filter
// when nil.
func genFinder(f *jen.File, b *gen.Bean, finder *gen.FinderMethod) {
	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	for _, p := range finder.Params {
		params = append(params, jen.Id(p.VarName()).Add(finderParamType(p)))
	}
	var results []jen.Code
	if finder.Unique {
		results = []jen.Code{jen.Op("*").Id(b.Name), jen.Error()}
	} else {
		results = []jen.Code{jen.Op("*").Qual(runtimePkg, "Iterator").Index(jen.Op("*").Id(b.Name)), jen.Error()}
	}
	f.Commentf("%s looks %s beans up through the %s index.", finder.Name(), b.Name, finder.Index.Name)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id(finder.Name()).Params(params...).Params(results...).BlockFunc(func(g *jen.Group) {
		g.Id("q").Op(":=").Id("d").Dot("query").Call()
		for _, p := range finder.Params {
			genFinderFilter(g, p)
		}
		if finder.Unique {
			g.Return(jen.Qual(runtimePkg, "One").Call(jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("q"), jen.Id("d").Dot("scan").Call(jen.Id("ctx"))))
			return
		}
		g.Return(jen.Qual(runtimePkg, "Iter").Call(jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("q"), jen.Id("d").Dot("scan").Call(jen.Id("ctx"))))
	})
}

// finderParamType returns the Go type of a finder parameter. Optional
// scalar parameters of non-pointer type are pointer-wrapped.
func finderParamType(p *gen.FinderParam) *jen.Statement {
	if p.Object != nil {
		return jen.Op("*").Id(p.Object.Target.Name)
	}
	t := fieldType(p.Scalar.Column)
	if !p.Required && !isPointerParam(p.Scalar.Column) {
		return jen.Op("*").Add(t)
	}
	return t
}

func isPointerParam(c *schema.Column) bool {
	return c.Nullable || naturallyNillable(c.Type)
}

// genFinderFilter appends the filter clauses of one finder parameter.
func genFinderFilter(g *jen.Group, p *gen.FinderParam) {
	if p.Object != nil {
		clauses := func(inner *jen.Group) {
			for _, bind := range p.Bindings {
				inner.Id("q").Op("=").Id("q").Dot("Where").Call(
					jen.Lit(bind.LocalColumn),
					jen.Id(p.VarName()).Dot(bind.TargetGetter).Call(),
				)
			}
		}
		if p.Required {
			clauses(g)
			return
		}
		g.If(jen.Id(p.VarName()).Op("!=").Nil()).BlockFunc(clauses)
		return
	}
	col := p.Scalar.Column
	value := jen.Id(p.VarName())
	if !p.Required {
		if !isPointerParam(col) {
			value = jen.Op("*").Id(p.VarName())
		}
		g.If(jen.Id(p.VarName()).Op("!=").Nil()).Block(
			jen.Id("q").Op("=").Id("q").Dot("Where").Call(jen.Lit(col.Name), value),
		)
		return
	}
	g.Id("q").Op("=").Id("q").Dot("Where").Call(jen.Lit(col.Name), value)
}

// genMethod generates one navigation method.
func (e *Emitter) genMethod(f *jen.File, b *gen.Bean, m gen.Method) error {
	switch m := m.(type) {
	case *gen.DirectForeignKeyMethod:
		return genDirectMethod(f, b, m)
	case *gen.PivotTableMethod:
		return genPivotMethod(f, b, m)
	}
	return fmt.Errorf("golang: unknown method kind %T", m)
}

// genDirectMethod generates the reverse navigation of a foreign key:
// the rows of the declaring table pointing at the given bean.
func genDirectMethod(f *jen.File, b *gen.Bean, m *gen.DirectForeignKeyMethod) error {
	target := m.Source
	f.Commentf("%s iterates over the %s beans referencing the given %s.", m.Name(), target.Name, b.Name)
	var filters []jen.Code
	for i, lc := range m.FK.Columns {
		sp, ok := b.ScalarByColumn(m.FK.RefColumns[i])
		if !ok {
			return fmt.Errorf("golang: table %s: column %s referenced by %s resolves to no scalar property", b.Table.Name, m.FK.RefColumns[i], m.FK.Name)
		}
		filters = append(filters, jen.Id("q").Op("=").Id("q").Dot("Where").Call(
			jen.Lit(lc), jen.Id("bean").Dot(sp.Getter()).Call(),
		))
	}
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id(m.Name()).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("bean").Op("*").Id(b.Name),
	).Params(jen.Op("*").Qual(runtimePkg, "Iterator").Index(jen.Op("*").Id(target.Name)), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.Id("q").Op(":=").Qual(runtimePkg, "Query").Values(jen.Dict{
			jen.Id("Table"):   jen.Lit(target.Table.Name),
			jen.Id("Columns"): jen.Id(columnsFuncName(target)).Call(),
		})
		for _, f := range filters {
			g.Add(f)
		}
		g.Return(jen.Qual(runtimePkg, "Iter").Call(
			jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("q"), scanClosure(target),
		))
	})
	return nil
}

// genPivotMethod generates a hop across a junction table.
func genPivotMethod(f *jen.File, b *gen.Bean, m *gen.PivotTableMethod) error {
	target := m.Remote
	pairs := make([]jen.Code, 0, len(m.RemoteFK.Columns))
	for i, jc := range m.RemoteFK.Columns {
		pairs = append(pairs, jen.Values(jen.Dict{
			jen.Id("Joined"): jen.Lit(jc),
			jen.Id("Base"):   jen.Lit(m.RemoteFK.RefColumns[i]),
		}))
	}
	var filters []jen.Code
	for i, jc := range m.LocalFK.Columns {
		sp, ok := b.ScalarByColumn(m.LocalFK.RefColumns[i])
		if !ok {
			return fmt.Errorf("golang: table %s: column %s referenced by %s resolves to no scalar property", b.Table.Name, m.LocalFK.RefColumns[i], m.LocalFK.Name)
		}
		filters = append(filters, jen.Id("q").Op("=").Id("q").Dot("WhereJoined").Call(
			jen.Lit(jc), jen.Id("bean").Dot(sp.Getter()).Call(),
		))
	}
	f.Commentf("%s iterates over the %s beans linked to the given %s through %s.", m.Name(), target.Name, b.Name, m.Pivot.Name)
	f.Func().Params(jen.Id("d").Op("*").Id(b.DAOName())).Id(m.Name()).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("bean").Op("*").Id(b.Name),
	).Params(jen.Op("*").Qual(runtimePkg, "Iterator").Index(jen.Op("*").Id(target.Name)), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.Id("q").Op(":=").Qual(runtimePkg, "Query").Values(jen.Dict{
			jen.Id("Table"):   jen.Lit(target.Table.Name),
			jen.Id("Columns"): jen.Id(columnsFuncName(target)).Call(),
			jen.Id("Join"): jen.Op("&").Qual(runtimePkg, "Join").Values(jen.Dict{
				jen.Id("Table"): jen.Lit(m.Pivot.Name),
				jen.Id("On"):    jen.Index().Qual(runtimePkg, "ColumnPair").Values(pairs...),
			}),
		})
		for _, f := range filters {
			g.Add(f)
		}
		g.Return(jen.Qual(runtimePkg, "Iter").Call(
			jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("q"), scanClosure(target),
		))
	})
	return nil
}

// scanClosure builds a deep-scanning closure over another bean's row
// scanner, for methods yielding a different bean than their DAO's.
func scanClosure(target *gen.Bean) *jen.Statement {
	return jen.Func().Params(jen.Id("rows").Op("*").Qual("database/sql", "Rows")).Params(jen.Op("*").Id(target.Name), jen.Error()).Block(
		jen.Return(jen.Id(scanFuncName(target)).Call(jen.Id("ctx"), jen.Id("d").Dot("conn"), jen.Id("rows"), jen.True())),
	)
}

func tmpVar(i int) string { return "v" + strconv.Itoa(i) }

func columnIndex(t *schema.Table, name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
