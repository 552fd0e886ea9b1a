package gen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmitter struct {
	support []byte
	fail    bool
}

func (e *stubEmitter) Name() string { return "stub" }

func (e *stubEmitter) EmitBean(b *Bean) ([]byte, error) {
	if e.fail {
		return nil, errors.New("render failed")
	}
	return []byte("bean " + b.Name + "\n"), nil
}

func (e *stubEmitter) EmitDAO(b *Bean) ([]byte, error) {
	return []byte("dao " + b.DAOName() + "\n"), nil
}

func (e *stubEmitter) EmitSupport(g *Graph) ([]byte, error) {
	return e.support, nil
}

func TestGenerateWritesAllFiles(t *testing.T) {
	g := buildGraph(t, testSchema())
	err := NewGenerator(g, &stubEmitter{support: []byte("support\n")}).WithWorkers(2).Generate(context.Background())
	require.NoError(t, err)

	for _, name := range []string{
		"country.go", "country_dao.go",
		"user.go", "user_dao.go",
		"post.go", "post_dao.go",
		"role.go", "role_dao.go",
		"admin.go", "admin_dao.go",
		"tdbm.go",
	} {
		data, err := os.ReadFile(filepath.Join(g.Target, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestGenerateSkipsSupportFileWhenNil(t *testing.T) {
	g := buildGraph(t, testSchema())
	err := NewGenerator(g, &stubEmitter{}).Generate(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(g.Target, "tdbm.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateKeepsIdenticalFiles(t *testing.T) {
	g := buildGraph(t, testSchema())
	e := &stubEmitter{support: []byte("support\n")}
	require.NoError(t, NewGenerator(g, e).Generate(context.Background()))

	path := filepath.Join(g.Target, "user.go")
	before, err := os.Stat(path)
	require.NoError(t, err)

	// Unchanged content is not rewritten.
	require.NoError(t, NewGenerator(g, e).Generate(context.Background()))
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestGenerateRendersFailureAsGenerationError(t *testing.T) {
	g := buildGraph(t, testSchema())
	err := NewGenerator(g, &stubEmitter{fail: true}).Generate(context.Background())
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
}

func TestGenerateRequiresEmitter(t *testing.T) {
	g := buildGraph(t, testSchema())
	err := NewGenerator(g, nil).Generate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfig))
}
