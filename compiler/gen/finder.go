package gen

import (
	"strings"

	"github.com/moufmouf/tdbm/compiler/schema"
)

type (
	// FinderMethod is a lookup method on a generated DAO derived from a
	// table index. A unique index yields a single-result finder, any
	// other index yields an iterator finder.
	FinderMethod struct {
		// Index is the index the finder was derived from.
		Index *schema.Index
		// Unique indicates a single-result finder.
		Unique bool
		// Params are the finder parameters in index-column order.
		Params []*FinderParam

		bean *Bean
	}

	// FinderParam is one parameter of a finder. Exactly one of Scalar and
	// Object is set: a plain index column filters on its own value, a
	// foreign-key column group filters on a related bean. Only the first
	// parameter of a finder is required; the rest are optional and, when
	// absent, drop their filter clause.
	FinderParam struct {
		// Required marks the leading parameter.
		Required bool
		// Scalar is the property of a plain index column.
		Scalar *ScalarProperty
		// Object is the property of a foreign-key column group.
		Object *ObjectProperty
		// Bindings map, for an object parameter, each local column to the
		// getter on the related bean supplying the filter value.
		Bindings []FinderBinding
	}

	// FinderBinding ties one local foreign-key column to the scalar getter
	// on the referenced bean that supplies its value.
	FinderBinding struct {
		// LocalColumn is the filtering column on the finder's table.
		LocalColumn string
		// TargetGetter is the getter on the parameter bean.
		TargetGetter string
	}
)

// Name returns the finder name: "FindBy" followed by the parameter names
// joined with "And", e.g. "FindByLogin" or "FindByCountryAndStatus".
func (f *FinderMethod) Name() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.PropertyName()
	}
	return "FindBy" + strings.Join(parts, "And")
}

// Bean returns the bean the finder yields.
func (f *FinderMethod) Bean() *Bean { return f.bean }

// PropertyName returns the exported name of the parameter's property.
func (p *FinderParam) PropertyName() string {
	if p.Scalar != nil {
		return p.Scalar.Name()
	}
	return p.Object.Name()
}

// VarName returns the parameter's variable name in generated code.
func (p *FinderParam) VarName() string { return camel(snake(p.PropertyName())) }

// resolveFinders derives the bean's finders from its table indexes.
// Duplicate indexes collapse to one finder, an index that covers exactly
// one foreign key and nothing else yields no finder (the reference
// property already serves it), and an index over an unsupported shape is
// skipped with a warning instead of aborting the run.
func (b *Bean) resolveFinders() error {
	for _, idx := range b.Table.DedupedIndexes() {
		f, err := b.finderForIndex(idx)
		if err != nil {
			if IsUnsupportedShapeError(err) {
				b.graph.logger().Warn("skipping finder over unsupported schema shape",
					"table", b.Table.Name, "index", idx.Name, "err", err)
				continue
			}
			return err
		}
		if f == nil {
			continue
		}
		b.Finders = append(b.Finders, f)
	}
	return nil
}

// finderForIndex builds one finder from one index. It returns nil when
// the index reduces to a single foreign key.
func (b *Bean) finderForIndex(idx *schema.Index) (*FinderMethod, error) {
	seen := make(map[*schema.ForeignKey]bool)
	var params []*FinderParam
	for _, col := range idx.Columns {
		fk := b.Table.ForeignKeyFor(col)
		if fk == nil {
			params = append(params, &FinderParam{Scalar: b.scalarParam(col)})
			continue
		}
		if seen[fk] {
			continue
		}
		seen[fk] = true
		obj, err := b.objectParam(fk)
		if err != nil {
			return nil, err
		}
		bindings, err := b.bindConstraint(idx, fk)
		if err != nil {
			return nil, err
		}
		params = append(params, &FinderParam{Object: obj, Bindings: bindings})
	}
	if len(params) == 1 && params[0].Object != nil {
		return nil, nil
	}
	params[0].Required = true
	return &FinderMethod{Index: idx, Unique: idx.Unique, Params: params, bean: b}, nil
}

// scalarParam resolves the property of a plain index column. A column
// without a resolved property (e.g. shadowed by inheritance) filters
// through an ad-hoc property built from the column itself.
func (b *Bean) scalarParam(col string) *ScalarProperty {
	if sp, ok := b.ScalarByColumn(col); ok {
		return sp
	}
	c, _ := b.Table.Column(col)
	return &ScalarProperty{Column: c, table: b.Table}
}

// objectParam resolves the reference property of a foreign key in an
// index. The inheritance link has no resolved property; an index over it
// filters through an ad-hoc property targeting the parent bean.
func (b *Bean) objectParam(fk *schema.ForeignKey) (*ObjectProperty, error) {
	if op, ok := b.ObjectByFK(fk); ok {
		return op, nil
	}
	target, ok := b.graph.Bean(fk.RefTable)
	if !ok {
		return nil, NewSchemaIntegrityError(b.Table.Name,
			"constraint "+fk.Name+" references table "+fk.RefTable+", which maps to no bean")
	}
	return &ObjectProperty{FK: fk, Target: target, table: b.Table}, nil
}

// bindConstraint maps each local column of the constraint to the getter
// on the referenced bean supplying the filter value. The referenced
// column must resolve to a plain scalar; a column that is itself part of
// another foreign key would need a second hop, which is not supported.
func (b *Bean) bindConstraint(idx *schema.Index, fk *schema.ForeignKey) ([]FinderBinding, error) {
	target, ok := b.graph.Bean(fk.RefTable)
	if !ok {
		return nil, NewSchemaIntegrityError(b.Table.Name,
			"constraint "+fk.Name+" references table "+fk.RefTable+", which maps to no bean")
	}
	bindings := make([]FinderBinding, 0, len(fk.Columns))
	for i, local := range fk.Columns {
		ref := fk.RefColumns[i]
		if target.Table.ForeignKeyFor(ref) != nil {
			return nil, NewUnsupportedShapeError(b.Table.Name, idx.Name, local,
				"referenced column "+ref+" of table "+fk.RefTable+" is itself a foreign key; finders resolve one hop only")
		}
		sp, ok := target.ScalarByColumn(ref)
		if !ok {
			return nil, NewUnsupportedShapeError(b.Table.Name, idx.Name, local,
				"referenced column "+ref+" of table "+fk.RefTable+" resolves to no scalar property")
		}
		bindings = append(bindings, FinderBinding{LocalColumn: local, TargetGetter: sp.Getter()})
	}
	return bindings, nil
}
