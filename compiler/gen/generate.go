package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultHeader is the header comment of generated files unless the
// configuration overrides it.
const DefaultHeader = "Code generated by tdbm. DO NOT EDIT."

// An Emitter renders the resolved graph into source files. Emitters are
// dialect-specific (see gen/golang); the generator only schedules them.
type Emitter interface {
	// Name identifies the emitter in error messages.
	Name() string
	// EmitBean renders the bean type of one bean.
	EmitBean(b *Bean) ([]byte, error)
	// EmitDAO renders the data-access object of one bean.
	EmitDAO(b *Bean) ([]byte, error)
	// EmitSupport renders the per-package support file (DAO factory,
	// shared helpers). A nil result emits no file.
	EmitSupport(g *Graph) ([]byte, error)
}

// Generator schedules an emitter over a resolved graph and writes the
// rendered files under the configured target directory.
type Generator struct {
	graph   *Graph
	emitter Emitter
	workers int
}

// NewGenerator creates a generator for the given graph and emitter.
func NewGenerator(g *Graph, e Emitter) *Generator {
	return &Generator{graph: g, emitter: e, workers: runtime.GOMAXPROCS(0)}
}

// WithWorkers caps the number of files rendered concurrently.
func (gen *Generator) WithWorkers(n int) *Generator {
	if n > 0 {
		gen.workers = n
	}
	return gen
}

// Generate renders and writes all files of the graph: one bean file and
// one DAO file per bean, plus the support file. Files are rendered
// concurrently; the first failure cancels the remaining work.
func (gen *Generator) Generate(ctx context.Context) error {
	if gen.emitter == nil {
		return NewConfigError("Emitter", nil, "generator requires an emitter")
	}
	target := gen.graph.Target
	if target == "" {
		return NewConfigError("Target", nil, "generator requires a target directory")
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return NewGenerationError("setup", target, "creating target directory", err)
	}
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(gen.workers)
	for _, b := range gen.graph.Beans {
		b := b
		grp.Go(func() error {
			content, err := gen.emitter.EmitBean(b)
			if err != nil {
				return NewGenerationError("bean", b.FileName(), "rendering "+b.Name, err)
			}
			return gen.writeFile(b.FileName(), content)
		})
		grp.Go(func() error {
			content, err := gen.emitter.EmitDAO(b)
			if err != nil {
				return NewGenerationError("dao", b.DAOFileName(), "rendering "+b.DAOName(), err)
			}
			return gen.writeFile(b.DAOFileName(), content)
		})
	}
	grp.Go(func() error {
		content, err := gen.emitter.EmitSupport(gen.graph)
		if err != nil {
			return NewGenerationError("support", supportFileName, "rendering support file", err)
		}
		if content == nil {
			return nil
		}
		return gen.writeFile(supportFileName, content)
	})
	return grp.Wait()
}

const supportFileName = "tdbm.go"

// writeFile writes one rendered file, skipping the write when the
// on-disk content is already identical.
func (gen *Generator) writeFile(name string, content []byte) error {
	path := filepath.Join(gen.graph.Target, name)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return NewGenerationError("write", path, "writing file", err)
	}
	return nil
}
