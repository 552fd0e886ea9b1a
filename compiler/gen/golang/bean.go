package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/moufmouf/tdbm/compiler/gen"
)

// EmitBean renders the bean type of one table: the struct, its
// constructor, accessors for its own properties, JSON serialization,
// Clone and ClearReferences.
func (e *Emitter) EmitBean(b *gen.Bean) ([]byte, error) {
	f := e.newFile()
	genBeanStruct(f, b)
	genBeanConstructor(f, b)
	genBeanAccessors(f, b)
	genBeanJSON(f, b)
	genBeanClone(f, b)
	genBeanClearReferences(f, b)
	return render(f)
}

// genBeanStruct generates the bean struct. A bean with a parent embeds
// the parent bean by value; inherited properties are promoted fields.
func genBeanStruct(f *jen.File, b *gen.Bean) {
	f.Commentf("%s represents one row of the %s table.", b.Name, b.Table.Name)
	f.Type().Id(b.Name).StructFunc(func(g *jen.Group) {
		if b.Parent != nil {
			g.Id(b.Parent.Name)
		}
		for _, p := range b.Properties {
			g.Id(p.Name()).Add(propType(p))
		}
		if b.Parent == nil {
			g.Line()
			g.Id("persisted").Bool()
		}
	})
}

// genBeanConstructor generates the constructor taking every compulsory
// property of the bean, inherited ones first. The effective property set
// already overlays same-named own properties over inherited ones, so a
// shadowed name yields a single parameter feeding both the parent
// constructor and the own field.
func genBeanConstructor(f *jen.File, b *gen.Bean) {
	all := b.CompulsoryProperties()
	params := make([]jen.Code, 0, len(all))
	for _, p := range all {
		params = append(params, jen.Id(paramName(p)).Add(propType(p)))
	}
	fields := jen.Dict{}
	if b.Parent != nil {
		inherited := b.Parent.CompulsoryProperties()
		args := make([]jen.Code, 0, len(inherited))
		for _, p := range inherited {
			args = append(args, jen.Id(paramName(p)))
		}
		fields[jen.Id(b.Parent.Name)] = jen.Op("*").Id(b.Parent.Constructor()).Call(args...)
	}
	for _, p := range b.Properties {
		if p.Compulsory() {
			fields[jen.Id(p.Name())] = jen.Id(paramName(p))
		}
	}
	f.Commentf("%s creates a %s with its compulsory properties set.", b.Constructor(), b.Name)
	f.Func().Id(b.Constructor()).Params(params...).Op("*").Id(b.Name).Block(
		jen.Return(jen.Op("&").Id(b.Name).Values(fields)),
	)
}

// genBeanAccessors generates a getter and a setter per own property.
// Inherited accessors are promoted from the embedded parent.
func genBeanAccessors(f *jen.File, b *gen.Bean) {
	for _, p := range b.Properties {
		f.Func().Params(jen.Id("b").Op("*").Id(b.Name)).Id(p.Getter()).Params().Add(propType(p)).Block(
			jen.Return(jen.Id("b").Dot(p.Name())),
		)
		f.Func().Params(jen.Id("b").Op("*").Id(b.Name)).Id(p.Setter()).Params(jen.Id("v").Add(propType(p))).Block(
			jen.Id("b").Dot(p.Name()).Op("=").Id("v"),
		)
	}
}

// genBeanJSON generates MarshalJSON and the jsonFields helper. A bean
// serializes its inherited fields first, then its own scalars, then its
// references. Referenced beans serialize with recursion stopped, so a
// cyclic object graph cannot loop.
func genBeanJSON(f *jen.File, b *gen.Bean) {
	f.Func().Params(jen.Id("b").Op("*").Id(b.Name)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Return(jen.Qual("encoding/json", "Marshal").Call(jen.Id("b").Dot("jsonFields").Call(jen.False()))),
	)
	f.Func().Params(jen.Id("b").Op("*").Id(b.Name)).Id("jsonFields").Params(jen.Id("stop").Bool()).Map(jen.String()).Any().BlockFunc(func(g *jen.Group) {
		if b.Parent != nil {
			g.Id("m").Op(":=").Id("b").Dot(b.Parent.Name).Dot("jsonFields").Call(jen.Id("stop"))
		} else {
			g.Id("m").Op(":=").Make(jen.Map(jen.String()).Any())
		}
		for _, p := range b.Properties {
			if _, ok := p.(*gen.ScalarProperty); ok {
				g.Id("m").Index(jen.Lit(p.JSONKey())).Op("=").Id("b").Dot(p.Name())
			}
		}
		objs := b.ObjectProperties()
		if len(objs) > 0 {
			g.If(jen.Op("!").Id("stop")).BlockFunc(func(g *jen.Group) {
				for _, p := range objs {
					g.If(jen.Id("b").Dot(p.Name()).Op("!=").Nil()).Block(
						jen.Id("m").Index(jen.Lit(p.JSONKey())).Op("=").Id("b").Dot(p.Name()).Dot("jsonFields").Call(jen.True()),
					).Else().Block(
						jen.Id("m").Index(jen.Lit(p.JSONKey())).Op("=").Nil(),
					)
				}
			})
		}
		g.Return(jen.Id("m"))
	})
}

// genBeanClone generates Clone: scalars copy, references clone deeply,
// and the clone comes back unpersisted with generated key columns reset.
func genBeanClone(f *jen.File, b *gen.Bean) {
	f.Commentf("Clone returns an unpersisted deep copy of the %s.", b.Name)
	f.Func().Params(jen.Id("b").Op("*").Id(b.Name)).Id("Clone").Params().Op("*").Id(b.Name).BlockFunc(func(g *jen.Group) {
		g.Id("c").Op(":=").Op("*").Id("b")
		g.Id("c").Dot("persisted").Op("=").False()
		for _, p := range b.PrimaryKeyProperties() {
			sp, ok := p.(*gen.ScalarProperty)
			if !ok || !sp.Column.AutoIncrement {
				continue
			}
			g.Id("c").Dot(p.Name()).Op("=").Lit(0)
		}
		for _, p := range allObjectProperties(b) {
			g.If(jen.Id("b").Dot(p.Name()).Op("!=").Nil()).Block(
				jen.Id("c").Dot(p.Name()).Op("=").Id("b").Dot(p.Name()).Dot("Clone").Call(),
			)
		}
		g.Return(jen.Op("&").Id("c"))
	})
}

// genBeanClearReferences generates ClearReferences, detaching the bean
// from every bean it points at (inherited references included).
func genBeanClearReferences(f *jen.File, b *gen.Bean) {
	f.Func().Params(jen.Id("b").Op("*").Id(b.Name)).Id("ClearReferences").Params().BlockFunc(func(g *jen.Group) {
		for _, p := range allObjectProperties(b) {
			g.Id("b").Dot(p.Name()).Op("=").Nil()
		}
	})
}

// allObjectProperties returns the effective reference properties of a
// bean, inherited ones included.
func allObjectProperties(b *gen.Bean) []*gen.ObjectProperty {
	var out []*gen.ObjectProperty
	for _, p := range b.AllProperties() {
		if op, ok := p.(*gen.ObjectProperty); ok {
			out = append(out, op)
		}
	}
	return out
}

// paramName returns the local variable name of a property in generated
// signatures.
func paramName(p gen.Property) string { return gen.Camel(gen.Snake(p.Name())) }
