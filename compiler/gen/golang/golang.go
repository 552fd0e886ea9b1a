// Package golang renders a resolved generation graph as Go source: one
// bean file and one DAO file per bean, plus a support file with the DAO
// factory. All rendering goes through jennifer; no templates.
package golang

import (
	"bytes"
	"context"
	"path"

	"github.com/dave/jennifer/jen"

	"github.com/moufmouf/tdbm/compiler/gen"
)

const runtimePkg = "github.com/moufmouf/tdbm/runtime"

// Emitter renders beans and DAOs as Go source files.
type Emitter struct {
	graph *gen.Graph
}

// NewEmitter creates a Go emitter for the given graph.
func NewEmitter(g *gen.Graph) *Emitter {
	return &Emitter{graph: g}
}

// Name implements gen.Emitter.
func (e *Emitter) Name() string { return "golang" }

// Generate resolves the graph's files with the Go emitter and writes
// them to the configured target directory.
func Generate(ctx context.Context, g *gen.Graph) error {
	return gen.NewGenerator(g, NewEmitter(g)).Generate(ctx)
}

// newFile opens a jen file for the configured package, with the header
// comment marking it as generated.
func (e *Emitter) newFile() *jen.File {
	f := jen.NewFilePathName(e.graph.Package, path.Base(e.graph.Package))
	header := e.graph.Header
	if header == "" {
		header = gen.DefaultHeader
	}
	f.HeaderComment(header)
	return f
}

// render flushes a jen file to source bytes.
func render(f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
