package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/moufmouf/tdbm/compiler/gen"
)

// EmitSupport renders the shared support file of the generated package:
// the DAO factory handing out one DAO per bean, all bound to the same
// connection.
func (e *Emitter) EmitSupport(g *gen.Graph) ([]byte, error) {
	f := e.newFile()
	f.Comment("DAOFactory hands out the data-access objects of this package,")
	f.Comment("all bound to one connection.")
	f.Type().Id("DAOFactory").Struct(
		jen.Id("conn").Op("*").Qual(runtimePkg, "Connection"),
	)
	f.Comment("NewDAOFactory creates a factory bound to the given connection.")
	f.Func().Id("NewDAOFactory").Params(jen.Id("conn").Op("*").Qual(runtimePkg, "Connection")).Op("*").Id("DAOFactory").Block(
		jen.Return(jen.Op("&").Id("DAOFactory").Values(jen.Dict{jen.Id("conn"): jen.Id("conn")})),
	)
	for _, b := range g.Beans {
		f.Func().Params(jen.Id("f").Op("*").Id("DAOFactory")).Id(b.DAOName()).Params().Op("*").Id(b.DAOName()).Block(
			jen.Return(jen.Id("New" + b.DAOName()).Call(jen.Id("f").Dot("conn"))),
		)
	}
	return render(f)
}
